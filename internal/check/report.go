package check

import (
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sys/cpu"
)

// Env describes the host a verification run executed on.
type Env struct {
	OS          string   `json:"os"`
	Arch        string   `json:"arch"`
	NumCPU      int      `json:"num_cpu"`
	CPUFeatures []string `json:"cpu_features,omitempty"`
}

// HostEnv captures the current host.
func HostEnv() Env {
	return Env{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		NumCPU:      runtime.NumCPU(),
		CPUFeatures: cpuFeatures(),
	}
}

// cpuFeatures lists the SIMD capabilities relevant to accelerated kernels.
func cpuFeatures() []string {
	var features []string
	if cpu.X86.HasAVX {
		features = append(features, "avx")
	}
	if cpu.X86.HasAVX2 {
		features = append(features, "avx2")
	}
	if cpu.X86.HasAVX512F {
		features = append(features, "avx512f")
	}
	if cpu.X86.HasFMA {
		features = append(features, "fma")
	}
	if cpu.ARM64.HasASIMD {
		features = append(features, "asimd")
	}
	if cpu.ARM64.HasSVE {
		features = append(features, "sve")
	}
	return features
}

// Report aggregates kernel comparison results for one verification run.
type Report struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Env       Env       `json:"env"`

	Shape   []int   `json:"shape"`
	Epsilon float64 `json:"epsilon"`
	Compute string  `json:"compute"`

	Results []Result `json:"results"`
	Skipped []string `json:"skipped,omitempty"`
	Passed  bool     `json:"passed"`
}

// NewReport creates an empty report for one shape/epsilon configuration.
func NewReport(shape []int, epsilon float64, compute string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Env:       HostEnv(),
		Shape:     shape,
		Epsilon:   epsilon,
		Compute:   compute,
		Passed:    true,
	}
}

// Add records one kernel's comparison results; the report fails if any
// result failed.
func (r *Report) Add(results ...Result) {
	for _, res := range results {
		r.Results = append(r.Results, res)
		if !res.Passed {
			r.Passed = false
		}
	}
}

// Skip records a kernel that could not run (e.g. no GPU runtime present).
// Skipping is not a failure.
func (r *Report) Skip(kernel string) {
	r.Skipped = append(r.Skipped, kernel)
}

// JSON renders the report for machine consumption.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
