package talosctl_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i2y/talos-mcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/talos-mcp/internal/adapter/outbound/talosctl"
	"github.com/i2y/talos-mcp/internal/usecase"
)

const testTalosConfig = "/tmp/talosconfig"

// MockExecutor is a mock implementation of the CommandExecutor interface.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, program string, args []string, env map[string]string) (usecase.ExecOutput, error) {
	a := m.Called(ctx, program, args, env)
	return a.Get(0).(usecase.ExecOutput), a.Error(1)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newToolset(exec usecase.CommandExecutor, disabled ...string) *talosctl.Toolset {
	return talosctl.New(exec, talosctl.Options{
		TalosConfig: testTalosConfig,
		ExtraEnv:    map[string]string{"HOME": "/nonexistent"},
		Disabled:    disabled,
	}, newLogger())
}

var wantEnv = map[string]string{"HOME": "/nonexistent", "TALOSCONFIG": testTalosConfig}

func withPrefix(args ...string) []string {
	return append([]string{"--talosconfig", testTalosConfig}, args...)
}

// call validates raw against the tool's schema, as the invoke use case
// does, and runs the handler.
func call(t *testing.T, ts *talosctl.Toolset, tool string, raw map[string]any) (any, error) {
	t.Helper()
	registry, err := memrepo.NewSchemaRegistry(ts.Schemas(), newLogger())
	require.NoError(t, err)
	schema, err := registry.Lookup(tool)
	require.NoError(t, err)
	params, err := usecase.ValidateParams(schema, raw)
	require.NoError(t, err)
	return ts.Handlers()[tool](context.Background(), params)
}

func TestToolset_Arguments(t *testing.T) {
	out := usecase.ExecOutput{Stdout: "stdout text", Stderr: "stderr text"}

	tests := []struct {
		name       string
		tool       string
		raw        map[string]any
		wantCalls  [][]string
		wantResult map[string]any
	}{
		{
			name:       "containers in k8s namespace",
			tool:       "containers",
			raw:        map[string]any{"node": "n1", "kubernetes": true},
			wantCalls:  [][]string{{"--nodes", "n1", "containers", "--kubernetes"}},
			wantResult: map[string]any{"containers": "stdout text", "namespace": "k8s.io"},
		},
		{
			name:       "stats in system namespace",
			tool:       "stats",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "stats"}},
			wantResult: map[string]any{"stats": "stdout text", "namespace": "system"},
		},
		{
			name:       "processes sorted by default key",
			tool:       "get_processes",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "processes", "--sort", "rss"}},
			wantResult: map[string]any{"processes": "stdout text", "sort_by": "rss"},
		},
		{
			name:      "memory verbose",
			tool:      "memory_verbose",
			raw:       map[string]any{"node": "n1"},
			wantCalls: [][]string{{"--nodes", "n1", "memory", "--verbose"}},
		},
		{
			name: "cpu and memory take two calls",
			tool: "get_cpu_memory_usage",
			raw:  map[string]any{"node": "n1"},
			wantCalls: [][]string{
				{"--nodes", "n1", "memory"},
				{"--nodes", "n1", "cgroups", "--preset", "cpu"},
			},
			wantResult: map[string]any{"memory": "stdout text", "cpu": "stdout text"},
		},
		{
			name:      "list with recurse drops depth",
			tool:      "list",
			raw:       map[string]any{"node": "n1", "long": true, "recurse": true, "depth": json.Number("3"), "type": []any{"f", "d"}},
			wantCalls: [][]string{{"--nodes", "n1", "list", "/", "--long", "--recurse", "--type", "f", "--type", "d"}},
			wantResult: map[string]any{
				"list": "stdout text", "path": "/", "long": true, "humanize": false,
				"recurse": true, "depth": int64(3), "types": []string{"f", "d"},
			},
		},
		{
			name:      "list with depth",
			tool:      "list",
			raw:       map[string]any{"node": "n1", "path": "/var", "humanize": true, "depth": json.Number("2")},
			wantCalls: [][]string{{"--nodes", "n1", "list", "/var", "--humanize", "--depth", "2"}},
			wantResult: map[string]any{
				"list": "stdout text", "path": "/var", "long": false, "humanize": true,
				"recurse": false, "depth": int64(2), "types": nil,
			},
		},
		{
			name:       "read",
			tool:       "read",
			raw:        map[string]any{"node": "n1", "path": "/etc/os-release"},
			wantCalls:  [][]string{{"--nodes", "n1", "read", "/etc/os-release"}},
			wantResult: map[string]any{"content": "stdout text"},
		},
		{
			name:       "copy",
			tool:       "copy",
			raw:        map[string]any{"node": "n1", "source": "/var/log", "destination": "./logs"},
			wantCalls:  [][]string{{"--nodes", "n1", "copy", "/var/log", "./logs"}},
			wantResult: map[string]any{"copy": "stdout text"},
		},
		{
			name:       "usage",
			tool:       "get_usage",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "usage", "/"}},
			wantResult: map[string]any{"usage": "stdout text", "path": "/"},
		},
		{
			name:      "mounts",
			tool:      "get_mounts",
			raw:       map[string]any{"node": "n1"},
			wantCalls: [][]string{{"--nodes", "n1", "mounts"}},
		},
		{
			name:       "interfaces with namespace",
			tool:       "interfaces",
			raw:        map[string]any{"node": "n1", "namespace": "network"},
			wantCalls:  [][]string{{"--nodes", "n1", "get", "addresses", "--namespace", "network", "--output", "table"}},
			wantResult: map[string]any{"interfaces": "stdout text", "namespace": "network", "output_format": "table"},
		},
		{
			name:       "routes as json",
			tool:       "routes",
			raw:        map[string]any{"node": "n1", "output": "json"},
			wantCalls:  [][]string{{"--nodes", "n1", "get", "routes", "--output", "json"}},
			wantResult: map[string]any{"routes": "stdout text", "namespace": nil, "output_format": "json"},
		},
		{
			name:      "netstat",
			tool:      "get_netstat",
			raw:       map[string]any{"node": "n1"},
			wantCalls: [][]string{{"--nodes", "n1", "netstat"}},
		},
		{
			name:       "packet capture defaults",
			tool:       "capture_packets",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "pcap", "--interface", "eth0", "--duration", "10s"}},
			wantResult: map[string]any{"packets": "stdout text", "interface": "eth0", "duration": "10s"},
		},
		{
			name:       "network io cgroups",
			tool:       "get_network_io_cgroups",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "cgroups", "--preset", "io"}},
			wantResult: map[string]any{"network_io": "stdout text"},
		},
		{
			name:       "legacy interface listing",
			tool:       "list_network_interfaces",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "list", "/sys/class/net"}},
			wantResult: map[string]any{"interfaces": "stdout text"},
		},
		{
			name:      "dmesg",
			tool:      "dmesg",
			raw:       map[string]any{"node": "n1"},
			wantCalls: [][]string{{"--nodes", "n1", "dmesg"}},
		},
		{
			name:       "service status by default",
			tool:       "service",
			raw:        map[string]any{"node": "n1", "service": "kubelet"},
			wantCalls:  [][]string{{"--nodes", "n1", "service", "kubelet", "status"}},
			wantResult: map[string]any{"service": "kubelet", "action": "status", "output": "stdout text"},
		},
		{
			name:       "restart",
			tool:       "restart",
			raw:        map[string]any{"node": "n1", "service": "etcd"},
			wantCalls:  [][]string{{"--nodes", "n1", "service", "etcd", "restart"}},
			wantResult: map[string]any{"restart": "stdout text", "service": "etcd"},
		},
		{
			name:       "logs with tail",
			tool:       "get_logs",
			raw:        map[string]any{"node": "n1", "service": "etcd", "tail": json.Number("100"), "kubernetes": true},
			wantCalls:  [][]string{{"--nodes", "n1", "logs", "etcd", "--tail", "100", "--kubernetes"}},
			wantResult: map[string]any{"logs": "stdout text", "service": "etcd", "tail_lines": int64(100), "namespace": "k8s.io"},
		},
		{
			name:       "logs without tail",
			tool:       "get_logs",
			raw:        map[string]any{"node": "n1", "service": "kubelet"},
			wantCalls:  [][]string{{"--nodes", "n1", "logs", "kubelet"}},
			wantResult: map[string]any{"logs": "stdout text", "service": "kubelet", "tail_lines": nil, "namespace": "system"},
		},
		{
			name:      "events",
			tool:      "get_events",
			raw:       map[string]any{"node": "n1"},
			wantCalls: [][]string{{"--nodes", "n1", "events"}},
		},
		{
			name:      "disks resource",
			tool:      "disks",
			raw:       map[string]any{"node": "n1"},
			wantCalls: [][]string{{"--nodes", "n1", "get", "disks", "--output", "table"}},
		},
		{
			name:       "block device listing",
			tool:       "list_disks",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "list", "/sys/block"}},
			wantResult: map[string]any{"disks": "stdout text"},
		},
		{
			name:      "health with defaults reads stderr",
			tool:      "get_health",
			raw:       map[string]any{},
			wantCalls: [][]string{{"--nodes", "192.168.1.77", "health", "--control-plane-nodes", "192.168.1.77", "--wait-timeout", "120s"}},
			wantResult: map[string]any{
				"health": "stderr text",
				"cluster_info": map[string]any{
					"control_planes": []string{"192.168.1.77"},
					"worker_nodes":   nil,
					"init_node":      nil,
					"timeout":        "120s",
					"run_e2e":        false,
					"k8s_endpoint":   nil,
					"server_side":    true,
				},
			},
		},
		{
			name: "health with every option",
			tool: "get_health",
			raw: map[string]any{
				"control_planes": []any{"cp1", "cp2"},
				"worker_nodes":   []any{"w1", "w2"},
				"init_node":      "cp1",
				"timeout":        "60s",
				"run_e2e":        true,
				"k8s_endpoint":   "https://cp1:6443",
				"server":         false,
			},
			wantCalls: [][]string{{
				"--nodes", "cp1", "health",
				"--control-plane-nodes", "cp1,cp2",
				"--worker-nodes", "w1,w2",
				"--init-node", "cp1",
				"--wait-timeout", "60s",
				"--run-e2e",
				"--k8s-endpoint", "https://cp1:6443",
				"--server=false",
			}},
		},
		{
			name:       "client version",
			tool:       "get_version",
			raw:        map[string]any{},
			wantCalls:  [][]string{{"version", "--client"}},
			wantResult: map[string]any{"version": "stdout text", "short_format": false},
		},
		{
			name:      "short client version",
			tool:      "get_version",
			raw:       map[string]any{"short": true},
			wantCalls: [][]string{{"version", "--client", "--short"}},
		},
		{
			name:       "time with ntp check",
			tool:       "get_time",
			raw:        map[string]any{"node": "n1", "check": "pool.ntp.org"},
			wantCalls:  [][]string{{"--nodes", "n1", "time", "--check", "pool.ntp.org"}},
			wantResult: map[string]any{"time": "stdout text", "node": "n1", "ntp_check": "pool.ntp.org"},
		},
		{
			name:       "reboot",
			tool:       "reboot_node",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "reboot"}},
			wantResult: map[string]any{"status": "reboot initiated", "output": "stdout text"},
		},
		{
			name:       "shutdown",
			tool:       "shutdown_node",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "shutdown"}},
			wantResult: map[string]any{"status": "node shutdown initiated", "output": "stdout text"},
		},
		{
			name:       "reset",
			tool:       "reset_node",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "reset"}},
			wantResult: map[string]any{"status": "node reset initiated", "output": "stdout text"},
		},
		{
			name:      "upgrade with default image",
			tool:      "upgrade_node",
			raw:       map[string]any{"node": "n1"},
			wantCalls: [][]string{{"--nodes", "n1", "upgrade", "--image", "ghcr.io/siderolabs/installer:latest"}},
		},
		{
			name:       "kubernetes upgrade defaults",
			tool:       "upgrade_k8s",
			raw:        map[string]any{},
			wantCalls:  [][]string{{"upgrade-k8s", "--from", "1.28.0", "--to", "1.29.0"}},
			wantResult: map[string]any{"status": "k8s upgrade initiated", "from": "1.28.0", "to": "1.29.0", "output": "stdout text"},
		},
		{
			name:      "apply config",
			tool:      "apply_config",
			raw:       map[string]any{"node": "n1", "file": "worker.yaml"},
			wantCalls: [][]string{{"--nodes", "n1", "apply-config", "--file", "worker.yaml"}},
		},
		{
			name:       "validate config",
			tool:       "validate_config",
			raw:        map[string]any{"config": "cp.yaml"},
			wantCalls:  [][]string{{"validate", "--config", "cp.yaml", "--mode", "container"}},
			wantResult: map[string]any{"validation": "stdout text", "mode": "container"},
		},
		{
			name:       "etcd status",
			tool:       "get_etcd_status",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "etcd", "status"}},
			wantResult: map[string]any{"etcd_status": "stdout text"},
		},
		{
			name:      "etcd members",
			tool:      "get_etcd_members",
			raw:       map[string]any{"node": "n1"},
			wantCalls: [][]string{{"--nodes", "n1", "etcd", "members"}},
		},
		{
			name:       "etcd bootstrap",
			tool:       "bootstrap_etcd",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "bootstrap"}},
			wantResult: map[string]any{"status": "etcd bootstrapped", "output": "stdout text"},
		},
		{
			name:       "etcd defrag",
			tool:       "defrag_etcd",
			raw:        map[string]any{"node": "n1"},
			wantCalls:  [][]string{{"--nodes", "n1", "etcd", "defrag"}},
			wantResult: map[string]any{"status": "etcd defragmented", "output": "stdout text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := new(MockExecutor)
			for _, args := range tt.wantCalls {
				exec.On("Execute", mock.Anything, "talosctl", withPrefix(args...), wantEnv).Return(out, nil).Once()
			}

			result, err := call(t, newToolset(exec), tt.tool, tt.raw)
			require.NoError(t, err)
			require.NotNil(t, result)
			if tt.wantResult != nil {
				assert.Equal(t, tt.wantResult, result)
			}
			exec.AssertExpectations(t)
		})
	}
}

func TestToolset_CoversEveryTool(t *testing.T) {
	exec := new(MockExecutor)
	ts := newToolset(exec)

	schemas := ts.Schemas()
	require.Len(t, schemas, 37)

	registry, err := memrepo.NewSchemaRegistry(schemas, newLogger())
	require.NoError(t, err)
	_, err = usecase.NewDispatcher(registry, ts.Handlers(), newLogger())
	require.NoError(t, err)
}

func TestCatalog_Annotations(t *testing.T) {
	destructive := map[string]bool{
		"reboot_node": true, "shutdown_node": true, "reset_node": true, "upgrade_node": true,
		"upgrade_k8s": true, "apply_config": true, "bootstrap_etcd": true, "defrag_etcd": true,
		"restart": true, "service": true, "copy": true,
	}
	for _, s := range talosctl.Catalog() {
		assert.Equal(t, destructive[s.Name], s.Annotations.Destructive, s.Name)
		assert.Equal(t, !destructive[s.Name], s.Annotations.ReadOnly, s.Name)
	}
}

func TestCatalog_MissingRequiredParameter(t *testing.T) {
	for _, schema := range talosctl.Catalog() {
		for _, omit := range schema.RequiredNames() {
			t.Run(schema.Name+"/"+omit, func(t *testing.T) {
				raw := map[string]any{}
				for _, name := range schema.RequiredNames() {
					if name != omit {
						raw[name] = "x"
					}
				}

				params, err := usecase.ValidateParams(schema, raw)
				var valErr *usecase.ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, omit, valErr.Param)
				assert.Equal(t, usecase.ReasonMissing, valErr.Reason)
				assert.Nil(t, params)
			})
		}
	}
}

func TestToolset_Disabled(t *testing.T) {
	ts := newToolset(new(MockExecutor), "reset_node", "copy")

	schemas := ts.Schemas()
	assert.Len(t, schemas, 35)
	for _, s := range schemas {
		assert.NotContains(t, []string{"reset_node", "copy"}, s.Name)
	}

	handlers := ts.Handlers()
	assert.NotContains(t, handlers, "reset_node")
	assert.NotContains(t, handlers, "copy")
	assert.Len(t, handlers, 35)
}

func TestCheckToolNames(t *testing.T) {
	assert.NoError(t, talosctl.CheckToolNames(nil))
	assert.NoError(t, talosctl.CheckToolNames([]string{"reboot_node"}))

	err := talosctl.CheckToolNames([]string{"reboot_node", "reboot_everything"})
	require.ErrorIs(t, err, usecase.ErrConfiguration)
	assert.Contains(t, err.Error(), `unknown tool "reboot_everything"`)
}

func TestToolset_ExecutionErrorPassesThrough(t *testing.T) {
	execErr := &usecase.ExecutionError{Program: "talosctl", ExitCode: 1, Stderr: "rpc error: connection refused"}
	exec := new(MockExecutor)
	exec.On("Execute", mock.Anything, "talosctl", withPrefix("--nodes", "n1", "memory"), wantEnv).
		Return(usecase.ExecOutput{Stderr: execErr.Stderr}, execErr).Once()

	// The second call of get_cpu_memory_usage must not run after the first fails.
	result, err := call(t, newToolset(exec), "get_cpu_memory_usage", map[string]any{"node": "n1"})

	var got *usecase.ExecutionError
	require.ErrorAs(t, err, &got)
	assert.Same(t, execErr, got)
	assert.Nil(t, result)
	exec.AssertExpectations(t)
}

func TestToolset_CustomProgram(t *testing.T) {
	exec := new(MockExecutor)
	exec.On("Execute", mock.Anything, "/opt/bin/talosctl", mock.Anything, mock.Anything).
		Return(usecase.ExecOutput{Stdout: "v1"}, nil).Once()

	ts := talosctl.New(exec, talosctl.Options{Program: "/opt/bin/talosctl", TalosConfig: testTalosConfig}, newLogger())
	_, err := call(t, ts, "get_version", map[string]any{})
	require.NoError(t, err)
	exec.AssertExpectations(t)
}
