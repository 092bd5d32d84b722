// Package report builds machine-readable run summaries the way
// verify.VerificationReport/GenerateReport in the teacher repository
// summarize a kernel verification pass, generalized here to a
// behavioral simulation run: cycles completed, any error encountered,
// and the process's resource usage over the run.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/rhdl/behavsim"
)

// ResourceUsage is a point-in-time sample of the running process's
// memory and CPU accounting.
type ResourceUsage struct {
	RSSBytes  uint64
	UserCPU   time.Duration
	SystemCPU time.Duration
}

// RunReport is the outcome of driving a behavsim.Simulator for a fixed
// number of cycles: the wall-clock duration, any error Run returned,
// and a resource-usage sample taken immediately after.
type RunReport struct {
	Name      string
	Cycles    int
	Duration  time.Duration
	RunErr    error
	Resources ResourceUsage
}

// OK reports whether the run completed without error.
func (r *RunReport) OK() bool { return r.RunErr == nil }

// GenerateReport runs sim for cycles ticks and returns a report of the
// outcome. A Run error is captured on the report rather than returned,
// so a failed run still produces a report describing the failure.
func GenerateReport(name string, sim *behavsim.Simulator, cycles int) *RunReport {
	r := &RunReport{Name: name, Cycles: cycles}

	start := time.Now()
	r.RunErr = sim.Run(cycles)
	r.Duration = time.Since(start)

	if usage, err := sampleResourceUsage(); err == nil {
		r.Resources = usage
	}

	return r
}

func sampleResourceUsage() (ResourceUsage, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return ResourceUsage{}, err
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return ResourceUsage{}, err
	}

	times, err := proc.Times()
	if err != nil {
		return ResourceUsage{}, err
	}

	return ResourceUsage{
		RSSBytes:  mem.RSS,
		UserCPU:   time.Duration(times.User * float64(time.Second)),
		SystemCPU: time.Duration(times.System * float64(time.Second)),
	}, nil
}

// WriteReport writes a formatted report to w.
func (r *RunReport) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "RUN REPORT: %s\n", r.Name)
	fmt.Fprintln(w, separator)

	fmt.Fprintf(w, "\nCycles requested: %d\n", r.Cycles)
	fmt.Fprintf(w, "Wall-clock duration: %s\n", r.Duration)

	fmt.Fprintln(w, "\nRESOURCE USAGE")
	fmt.Fprintf(w, "  RSS: %d bytes\n", r.Resources.RSSBytes)
	fmt.Fprintf(w, "  User CPU time: %s\n", r.Resources.UserCPU)
	fmt.Fprintf(w, "  System CPU time: %s\n", r.Resources.SystemCPU)

	fmt.Fprintln(w, "\nRESULT")
	if r.OK() {
		fmt.Fprintln(w, "Run completed successfully")
	} else {
		fmt.Fprintf(w, "Run failed: %v\n", r.RunErr)
	}
	fmt.Fprintln(w)
}

// SaveReportToFile writes the formatted report to filename.
func (r *RunReport) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("report: create %q: %w", filename, err)
	}
	defer file.Close()

	r.WriteReport(file)
	return nil
}
