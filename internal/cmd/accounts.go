package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/router-for-me/codex-switcher/internal/config"
)

// DoListAccounts prints the stored accounts. The active account is marked with '*'.
func DoListAccounts(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}
	accounts, err := newAuthManager(cfg).Accounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		_, _ = fmt.Fprintln(out, "No accounts yet. Run with -login to add one.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\tNAME\tEMAIL\tPLAN\tLAST USED")
	for _, account := range accounts {
		marker := ""
		if account.IsActive {
			marker = "*"
		}
		lastUsed := "never"
		if account.LastUsedAt != nil {
			lastUsed = account.LastUsedAt.Local().Format(time.DateTime)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, account.Name, dash(account.Email), dash(account.PlanType), lastUsed)
	}
	return w.Flush()
}

func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
