package talosctl

import "github.com/i2y/talos-mcp/internal/domain"

const queryNodeDescription = "IP address or hostname of the Talos node to query"

var (
	readOnly    = domain.ToolAnnotations{ReadOnly: true}
	destructive = domain.ToolAnnotations{Destructive: true}

	outputFormats = []string{"json", "table", "yaml", "jsonpath"}
)

// Catalog returns the tool table in advertisement order. Each call returns
// fresh values.
func Catalog() []domain.ToolSchema {
	return []domain.ToolSchema{
		// System inspection and monitoring
		{
			Name:        "containers",
			Description: "List running containers on a Talos node with their current status",
			Parameters: []domain.ParameterSpec{
				nodeParam(queryNodeDescription),
				boolParam("kubernetes", "Use the k8s.io containerd namespace to list Kubernetes containers (defaults to false)", false),
			},
			Annotations: readOnly,
		},
		{
			Name:        "stats",
			Description: "Get resource usage statistics (CPU, memory) for containers on a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam(queryNodeDescription),
				boolParam("kubernetes", "Use the k8s.io containerd namespace to get Kubernetes containers stats (defaults to false)", false),
			},
			Annotations: readOnly,
		},
		{
			Name:        "get_processes",
			Description: "List running processes on a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam(queryNodeDescription),
				enumParam("sort", "Column to sort output by (defaults to 'rss')", "rss", "rss", "cpu"),
			},
			Annotations: readOnly,
		},
		nodeOnly("memory_verbose", "Get detailed memory usage information from a Talos node", queryNodeDescription, readOnly),
		nodeOnly("get_cpu_memory_usage", "Get CPU and memory usage statistics from a Talos node", queryNodeDescription, readOnly),

		// File system operations
		{
			Name:        "list",
			Description: "List files and directories at a specified path on a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam(queryNodeDescription),
				stringParam("path", "Directory path to list (defaults to root /)", "/"),
				boolParam("long", "Display additional file details", false),
				boolParam("humanize", "Humanize size and time in the output", false),
				boolParam("recurse", "Recurse into subdirectories", false),
				{
					Name:        "depth",
					Type:        domain.ParamTypeInteger,
					Description: "Maximum recursion depth (defaults to 1)",
					Default:     int64(1),
					Minimum:     int64Ptr(1),
				},
				{
					Name:          "type",
					Type:          domain.ParamTypeStringArray,
					Description:   "Filter by specified file types",
					AllowedValues: []string{"f", "d", "l", "L"},
				},
			},
			Annotations: readOnly,
		},
		{
			Name:        "read",
			Description: "Read the contents of a file on a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam(queryNodeDescription),
				requiredString("path", "Full path to the file to read"),
			},
			Annotations: readOnly,
		},
		{
			Name:        "copy",
			Description: "Copy files to/from a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam("IP address or hostname of the Talos node"),
				requiredString("source", "Source file path (local or remote)"),
				requiredString("destination", "Destination file path (local or remote)"),
			},
			Annotations: destructive,
		},
		{
			Name:        "get_usage",
			Description: "Get disk usage information for a path on a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam(queryNodeDescription),
				stringParam("path", "Path to check disk usage for (defaults to root /)", "/"),
			},
			Annotations: readOnly,
		},
		nodeOnly("get_mounts", "Get filesystem mount information from a Talos node", queryNodeDescription, readOnly),

		// Network operations
		resourceQuery("interfaces", "Get detailed network interface information including addresses and links"),
		resourceQuery("routes", "Get network routing table information for a Talos node"),
		nodeOnly("get_netstat", "Get network connection statistics from a Talos node", queryNodeDescription, readOnly),
		{
			Name:        "capture_packets",
			Description: "Capture network packets on a Talos node interface",
			Parameters: []domain.ParameterSpec{
				nodeParam("IP address or hostname of the Talos node to capture from"),
				stringParam("interface", "Network interface to capture from (defaults to eth0)", "eth0"),
				stringParam("duration", "Duration to capture packets (defaults to 10s)", "10s"),
			},
			Annotations: readOnly,
		},
		nodeOnly("get_network_io_cgroups", "Get network I/O cgroup statistics from a Talos node", queryNodeDescription, readOnly),
		nodeOnly("list_network_interfaces", "List network interfaces on a Talos node (legacy method)", queryNodeDescription, readOnly),

		// Service and logging
		nodeOnly("dmesg", "Get kernel ring buffer messages (system logs) from a Talos node", queryNodeDescription, readOnly),
		{
			Name:        "service",
			Description: "Manage services on a Talos node (get status, start, stop, restart)",
			Parameters: []domain.ParameterSpec{
				nodeParam(queryNodeDescription),
				requiredString("service", "Name of the service to manage (e.g., kubelet, etcd, containerd)"),
				enumParam("action", "Action to perform on the service (defaults to 'status')", "status", "status", "start", "stop", "restart"),
			},
			Annotations: destructive,
		},
		{
			Name:        "restart",
			Description: "Restart a specific service on a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam("IP address or hostname of the Talos node"),
				requiredString("service", "Name of the service to restart (e.g., kubelet, etcd, containerd)"),
			},
			Annotations: destructive,
		},
		{
			Name:        "get_logs",
			Description: "Get service logs from a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam(queryNodeDescription),
				requiredString("service", "Name of the service to get logs for (e.g., kubelet, etcd)"),
				{
					Name:        "tail",
					Type:        domain.ParamTypeInteger,
					Description: "Number of lines to show from the end of the logs (e.g., 100)",
					Minimum:     int64Ptr(1),
				},
				boolParam("kubernetes", "Use the k8s.io containerd namespace to access Kubernetes containers (defaults to false)", false),
			},
			Annotations: readOnly,
		},
		nodeOnly("get_events", "Get system events from a Talos node", queryNodeDescription, readOnly),

		// Storage and hardware
		resourceQuery("disks", "Get detailed disk information from a Talos node"),
		nodeOnly("list_disks", "List disk devices on a Talos node", queryNodeDescription, readOnly),

		// Core cluster management
		{
			Name:        "get_health",
			Description: "Check the health status of the Talos cluster",
			Parameters: []domain.ParameterSpec{
				{
					Name:        "control_planes",
					Type:        domain.ParamTypeStringArray,
					Description: "Array of IP addresses or hostnames of control plane nodes (defaults to [192.168.1.77])",
					Default:     []string{"192.168.1.77"},
					MinItems:    1,
				},
				{
					Name:        "worker_nodes",
					Type:        domain.ParamTypeStringArray,
					Description: "Array of IP addresses or hostnames of worker nodes",
				},
				optionalString("init_node", "IP address or hostname of the init node"),
				stringParam("timeout", "Timeout duration for health check (defaults to 120s)", "120s"),
				boolParam("run_e2e", "Run Kubernetes e2e test (defaults to false)", false),
				optionalString("k8s_endpoint", "Use endpoint instead of kubeconfig default"),
				boolParam("server", "Run server-side check (defaults to true)", true),
			},
			Annotations: readOnly,
		},
		{
			Name:        "get_version",
			Description: "Get Talos client version information",
			Parameters: []domain.ParameterSpec{
				boolParam("short", "Print the short version (defaults to false)", false),
			},
			Annotations: readOnly,
		},
		{
			Name:        "get_time",
			Description: "Get current time from a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam(queryNodeDescription),
				optionalString("check", "Check server time against specified NTP server (e.g., 'pool.ntp.org')"),
			},
			Annotations: readOnly,
		},

		// Node management
		nodeOnly("reboot_node", "Reboot a Talos node (DESTRUCTIVE OPERATION)", "IP address or hostname of the Talos node to reboot", destructive),
		nodeOnly("shutdown_node", "Shutdown a Talos node (DESTRUCTIVE OPERATION)", "IP address or hostname of the Talos node to shutdown", destructive),
		nodeOnly("reset_node", "Reset a Talos node to factory defaults (DESTRUCTIVE OPERATION)", "IP address or hostname of the Talos node to reset", destructive),
		{
			Name:        "upgrade_node",
			Description: "Upgrade a Talos node to a new image version",
			Parameters: []domain.ParameterSpec{
				nodeParam("IP address or hostname of the Talos node to upgrade"),
				stringParam("image", "Container image to upgrade to (defaults to latest installer)", "ghcr.io/siderolabs/installer:latest"),
			},
			Annotations: destructive,
		},
		{
			Name:        "upgrade_k8s",
			Description: "Upgrade Kubernetes cluster version",
			Parameters: []domain.ParameterSpec{
				stringParam("from", "Current Kubernetes version (defaults to 1.28.0)", "1.28.0"),
				stringParam("to", "Target Kubernetes version (defaults to 1.29.0)", "1.29.0"),
			},
			Annotations: destructive,
		},

		// Configuration management
		{
			Name:        "apply_config",
			Description: "Apply a configuration file to a Talos node",
			Parameters: []domain.ParameterSpec{
				nodeParam("IP address or hostname of the Talos node to configure"),
				requiredString("file", "Path to the configuration file to apply"),
			},
			Annotations: destructive,
		},
		{
			Name:        "validate_config",
			Description: "Validate a Talos configuration file",
			Parameters: []domain.ParameterSpec{
				requiredString("config", "Path to the configuration file to validate"),
				stringParam("mode", "Validation mode (defaults to 'container')", "container"),
			},
			Annotations: readOnly,
		},

		// etcd management
		nodeOnly("get_etcd_status", "Get etcd cluster status from a Talos node", queryNodeDescription, readOnly),
		nodeOnly("get_etcd_members", "Get etcd cluster member information from a Talos node", queryNodeDescription, readOnly),
		nodeOnly("bootstrap_etcd", "Bootstrap etcd cluster on a Talos node", "IP address or hostname of the Talos node to bootstrap", destructive),
		nodeOnly("defrag_etcd", "Defragment etcd database on a Talos node", "IP address or hostname of the Talos node to defragment", destructive),
	}
}

func nodeOnly(name, description, nodeDescription string, annotations domain.ToolAnnotations) domain.ToolSchema {
	return domain.ToolSchema{
		Name:        name,
		Description: description,
		Parameters:  []domain.ParameterSpec{nodeParam(nodeDescription)},
		Annotations: annotations,
	}
}

// resourceQuery describes a `talosctl get <resource>` style tool.
func resourceQuery(name, description string) domain.ToolSchema {
	return domain.ToolSchema{
		Name:        name,
		Description: description,
		Parameters: []domain.ParameterSpec{
			nodeParam(queryNodeDescription),
			optionalString("namespace", "Resource namespace (default is to use default namespace per resource)"),
			enumParam("output", "Output mode (default: table)", "table", outputFormats...),
		},
		Annotations: readOnly,
	}
}

func nodeParam(description string) domain.ParameterSpec {
	return requiredString("node", description)
}

func requiredString(name, description string) domain.ParameterSpec {
	return domain.ParameterSpec{Name: name, Type: domain.ParamTypeString, Description: description, Required: true}
}

func optionalString(name, description string) domain.ParameterSpec {
	return domain.ParameterSpec{Name: name, Type: domain.ParamTypeString, Description: description}
}

func stringParam(name, description, def string) domain.ParameterSpec {
	return domain.ParameterSpec{Name: name, Type: domain.ParamTypeString, Description: description, Default: def}
}

func boolParam(name, description string, def bool) domain.ParameterSpec {
	return domain.ParameterSpec{Name: name, Type: domain.ParamTypeBoolean, Description: description, Default: def}
}

func enumParam(name, description, def string, allowed ...string) domain.ParameterSpec {
	return domain.ParameterSpec{
		Name:          name,
		Type:          domain.ParamTypeEnum,
		Description:   description,
		Default:       def,
		AllowedValues: allowed,
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
