package common

import (
	"encoding/json"
	"fmt"
	"os"
)

// CIResult is the machine-readable outcome a tool prints with --ci so
// pipelines can parse it instead of scraping human output.
type CIResult struct {
	OK      bool     `json:"ok"`
	Title   string   `json:"title"`
	Details []string `json:"details"`
	Error   string   `json:"error,omitempty"`
}

func PrintCIResult(ok bool, title string, details []string, err error) {
	result := CIResult{OK: ok, Title: title, Details: details}
	if err != nil {
		result.Error = err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(result)
}

func PrintHumanResult(ok bool, title string, details []string, err error) {
	status := "OK"
	if !ok {
		status = "FAILED"
	}
	fmt.Printf("%s: %s\n", title, status)
	for _, d := range details {
		fmt.Printf("  %s\n", d)
	}
	if err != nil {
		fmt.Printf("  error: %v\n", err)
	}
}
