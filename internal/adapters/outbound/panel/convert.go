package panel

import "github.com/fleetguard/fleetguard-controller/internal/logic/tracker"

// Wire shapes of the management panel API. Limits arrive in MB (memory,
// disk) and percent (cpu); usage arrives in bytes and percent.

type instancePage struct {
	Data []struct {
		Attributes instanceAttributes `json:"attributes"`
	} `json:"data"`
	Meta struct {
		Pagination struct {
			CurrentPage int `json:"current_page"`
			TotalPages  int `json:"total_pages"`
		} `json:"pagination"`
	} `json:"meta"`
}

type instanceAttributes struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Limits     struct {
		CPU    float64 `json:"cpu"`
		Memory int64   `json:"memory"`
		Disk   int64   `json:"disk"`
	} `json:"limits"`
}

type resourcesResponse struct {
	Attributes struct {
		Resources struct {
			CPUAbsolute float64 `json:"cpu_absolute"`
			MemoryBytes int64   `json:"memory_bytes"`
			DiskBytes   int64   `json:"disk_bytes"`
		} `json:"resources"`
	} `json:"attributes"`
}

func toDomainInstance(attrs *instanceAttributes) tracker.Instance {
	return tracker.Instance{
		ID:       attrs.Identifier,
		Name:     attrs.Name,
		Category: attrs.Category,
		Limits: tracker.Limits{
			CPUPercent: attrs.Limits.CPU,
			MemoryMB:   attrs.Limits.Memory,
			DiskMB:     attrs.Limits.Disk,
		},
	}
}

func toDomainSnapshot(body *resourcesResponse) *tracker.Snapshot {
	res := &body.Attributes.Resources

	return &tracker.Snapshot{
		CPUPercent:  res.CPUAbsolute,
		MemoryBytes: res.MemoryBytes,
		DiskBytes:   res.DiskBytes,
	}
}
