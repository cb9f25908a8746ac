package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/erpledger/internal/adapter/http/dto"
)

var errCheckFailed = errors.New("check failed")

// get calls the API and decodes a JSON response into out. okStatuses lists
// the codes whose body is still decoded, such as 409 for an inconsistent
// ledger.
func get(opts *options, path string, out any, okStatuses ...int) (int, []byte, error) {
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(opts.baseURL, "/")+path, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}

	client := &http.Client{Timeout: opts.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	accepted := resp.StatusCode == http.StatusOK
	for _, s := range okStatuses {
		accepted = accepted || resp.StatusCode == s
	}
	if !accepted {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return resp.StatusCode, body, fmt.Errorf("api returned %d: %s %s", resp.StatusCode, apiErr.Error, apiErr.Message)
		}
		return resp.StatusCode, body, fmt.Errorf("api returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, body, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, body, nil
}

func consistencyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check that all journal lines balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result dto.ConsistencyResponse
			_, body, err := get(opts, "/api/v1/ledger/consistency", &result, http.StatusConflict)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				printJSON(out, json.RawMessage(body))
			} else {
				fmt.Fprintf(out, "Debits:  %s\nCredits: %s\n", result.TotalDebits, result.TotalCredits)
			}
			if !result.Consistent {
				fmt.Fprintln(out, "Consistency check FAILED")
				return errCheckFailed
			}
			fmt.Fprintln(out, "Consistency check PASSED")
			return nil
		},
	}
}

func reconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <company-id>",
		Short: "Compare stored account balances with their journal lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ReconciliationReportResponse
			_, body, err := get(opts, "/api/v1/companies/"+url.PathEscape(args[0])+"/reconcile", &report)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				printJSON(out, json.RawMessage(body))
			} else {
				fmt.Fprintf(out, "Accounts reconciled: %d/%d\n", report.ReconciledAccounts, report.TotalAccounts)
				fmt.Fprintf(out, "Ledger consistent:   %v\n", report.LedgerConsistent)
				if len(report.Discrepancies) > 0 {
					tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "CODE\tRECORDED\tCALCULATED\tDIFFERENCE")
					for _, d := range report.Discrepancies {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.AccountCode, d.RecordedBalance, d.CalculatedBalance, d.Difference)
					}
					_ = tw.Flush()
				}
			}

			if len(report.Discrepancies) > 0 || !report.LedgerConsistent {
				return errCheckFailed
			}
			return nil
		},
	}
}

func trialBalanceCmd(opts *options) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "trial-balance <company-id>",
		Short: "Print a company's trial balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/companies/" + url.PathEscape(args[0]) + "/trial-balance"
			if asOf != "" {
				path += "?as_of=" + url.QueryEscape(asOf)
			}

			var tb dto.TrialBalanceResponse
			_, body, err := get(opts, path, &tb)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				printJSON(out, json.RawMessage(body))
				return nil
			}

			fmt.Fprintf(out, "Trial balance as of %s\n\n", tb.AsOf)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "CODE\tNAME\tDEBITS\tCREDITS\tBALANCE\t")
			for _, l := range tb.Lines {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", l.AccountCode, truncate(l.AccountName, 30), l.Debits.StringFixed(2), l.Credits.StringFixed(2), l.Balance.StringFixed(2))
			}
			fmt.Fprintf(tw, "\tTOTAL\t%s\t%s\t\t\n", tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2))
			_ = tw.Flush()

			if !tb.Balanced {
				fmt.Fprintln(out, "\nTrial balance does NOT balance")
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Cut-off date (YYYY-MM-DD), defaults to today")
	return cmd
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
