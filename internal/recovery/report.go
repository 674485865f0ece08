package recovery

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kisanseva/pagetrans/internal/files"
)

const CurrentReportVersion = 1

// Report is the failure summary written next to a translated page.
type Report struct {
	ReportVersion int `json:"report_version"`
	// InputPath and OutputPath are relative to the report's directory.
	InputPath     string        `json:"input_path"`
	InputHash     string        `json:"input_hash,omitempty"`
	OutputPath    string        `json:"output_path"`
	Backend       string        `json:"backend"`
	SourceLang    string        `json:"source_lang"`
	TargetLang    string        `json:"target_lang"`
	CycleID       string        `json:"cycle_id"`
	Status        string        `json:"status"`
	TotalBatches  int           `json:"total_batches"`
	FailedBatches []int         `json:"failed_batches"`
	Skipped       int           `json:"skipped_writes"`
	StatusReason  string        `json:"status_reason,omitempty"`
	Errors        []ErrorRecord `json:"errors"`
}

func (r *Report) Validate() error {
	if r.ReportVersion == 0 {
		r.ReportVersion = CurrentReportVersion
	}
	if r.ReportVersion != CurrentReportVersion {
		return fmt.Errorf("unsupported report_version: %d", r.ReportVersion)
	}
	if r.CycleID == "" {
		return fmt.Errorf("cycle_id is empty")
	}
	if r.TotalBatches < 0 {
		return fmt.Errorf("invalid total_batches: %d", r.TotalBatches)
	}
	for _, idx := range r.FailedBatches {
		if idx < 0 || idx >= r.TotalBatches {
			return fmt.Errorf("failed batch index out of range: %d", idx)
		}
	}
	if r.Status == "" {
		return fmt.Errorf("status is empty")
	}
	return nil
}

// SaveReport writes the report as indented JSON without replacing an
// existing file and returns the path written.
func SaveReport(path string, r *Report) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return files.AtomicWriteExclusive(path, data, 0600)
}

func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.ReportVersion == 0 {
		r.ReportVersion = CurrentReportVersion
	}
	return &r, nil
}

// GenerateReportPath picks an unused report filename next to outputPath:
// [base]_errors.json, then [base]_errors_0..9.json, then a UUIDv7 suffix.
func GenerateReportPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))

	primary := filepath.Join(dir, fmt.Sprintf("%s_errors.json", base))
	if _, err := os.Stat(primary); os.IsNotExist(err) {
		return primary
	}

	for i := 0; i <= 9; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_errors_%d.json", base, i))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}

	for i := 0; i < 100; i++ {
		var suffix string
		if u, err := uuid.NewV7(); err == nil {
			suffix = u.String()
		} else {
			suffix = uuid.NewString()[:8]
		}
		candidate := filepath.Join(dir, fmt.Sprintf("%s_errors_%s.json", base, suffix))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}

	return filepath.Join(dir, fmt.Sprintf("%s_errors_final_%d.json", base, os.Getpid()))
}

// HashFileHex returns a sha256-prefixed hex digest of the file contents.
func HashFileHex(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// RelativeToReport expresses targetPath relative to the directory of reportPath.
func RelativeToReport(reportPath, targetPath string) (string, error) {
	absDir, err := filepath.Abs(filepath.Dir(reportPath))
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absDir, absTarget)
}

// ResolveFromReport is the inverse of RelativeToReport.
func ResolveFromReport(reportPath, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(reportPath), path)
}
