// Command standing_audit checks persisted SAP verdicts against an expected
// outcome file. Registrars export the expectation list from the system of
// record; the tool fetches each student's latest evaluation and reports
// mismatches, exiting non-zero when a critical case diverges.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type auditCase struct {
	StudentID    string `json:"studentId"`
	ExpectStatus string `json:"expectStatus"`
	ExpectAid    bool   `json:"expectAid"`
	Critical     bool   `json:"critical"`
}

type caseFile struct {
	Cases []auditCase `json:"cases"`
}

type standingPayload struct {
	Data struct {
		Status         string `json:"status"`
		EligibleForAid bool   `json:"eligible_for_aid"`
		PeriodID       string `json:"period_id"`
		Revision       int    `json:"revision"`
	} `json:"data"`
}

type auditResult struct {
	Case        auditCase
	GotStatus   string
	GotAid      bool
	PeriodID    string
	Revision    int
	StatusMatch bool
	AidMatch    bool
	Error       error
	Duration    time.Duration
}

func main() {
	var (
		baseURL   string
		token     string
		casesPath string
		timeout   time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token with staff read access")
	flag.StringVar(&casesPath, "cases", filepath.Join("scripts", "standing_audit", "cases.json"), "Path to JSON case file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if token == "" {
		token = os.Getenv("AUDIT_TOKEN")
	}
	if token == "" {
		log.Fatal("no token provided: set -token or AUDIT_TOKEN")
	}

	cases, err := loadCases(casesPath)
	if err != nil {
		log.Fatalf("failed to load cases: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results      []auditResult
		breaking     int
		optionalDiff int
	)

	for _, c := range cases {
		res := auditStudent(client, baseURL, token, c)
		if res.Error != nil || !res.StatusMatch || !res.AidMatch {
			if c.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Critical mismatches: %d, Informational mismatches: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadCases(path string) ([]auditCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf caseFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	if len(cf.Cases) == 0 {
		return nil, fmt.Errorf("no cases defined in %s", path)
	}
	return cf.Cases, nil
}

func auditStudent(client *http.Client, base, token string, c auditCase) auditResult {
	res := auditResult{Case: c}

	url := strings.TrimRight(base, "/") + "/api/v1/students/" + c.StudentID + "/sap"
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		res.Error = err
		return res
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = fmt.Errorf("request failed: %w", err)
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return res
	}
	if resp.StatusCode != http.StatusOK {
		res.Error = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return res
	}

	var payload standingPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		res.Error = fmt.Errorf("decode body: %w", err)
		return res
	}

	res.GotStatus = payload.Data.Status
	res.GotAid = payload.Data.EligibleForAid
	res.PeriodID = payload.Data.PeriodID
	res.Revision = payload.Data.Revision
	res.StatusMatch = res.GotStatus == c.ExpectStatus
	res.AidMatch = res.GotAid == c.ExpectAid

	return res
}

func printReport(results []auditResult) {
	fmt.Println("Standing Audit Report")
	fmt.Println("=====================")
	for _, res := range results {
		state := "OK"
		if res.Error != nil {
			state = "ERROR"
		} else if !res.StatusMatch || !res.AidMatch {
			state = "DIFF"
		}
		fmt.Printf("[%s] student %s\n", state, res.Case.StudentID)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: got %s, expected %s | Aid: got %t, expected %t\n",
			res.GotStatus, res.Case.ExpectStatus, res.GotAid, res.Case.ExpectAid)
		fmt.Printf("  Period: %s (revision %d) in %s | Critical: %t\n",
			res.PeriodID, res.Revision, res.Duration, res.Case.Critical)
	}
}
