package models

// ContainerMetrics is an append-only counter snapshot accumulated over the
// child executions of one container run. Resource usage is sampled
// best-effort from the host environment.
type ContainerMetrics struct {
	TotalExecutions      int64 `json:"total_executions"`
	SuccessfulExecutions int64 `json:"successful_executions"`
	FailedExecutions     int64 `json:"failed_executions"`
	TotalDurationMs      int64 `json:"total_duration_ms"`
	AverageDurationMs    int64 `json:"average_duration_ms"`

	MemoryBytes uint64  `json:"memory_bytes,omitempty"`
	CPUPercent  float64 `json:"cpu_percent,omitempty"`
}
