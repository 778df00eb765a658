package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gameguild-gg/gameguild-sub001/internal/bootstrap"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
)

// Exit codes returned by BootstrapCommand.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// SuperAdminEnsurer is satisfied by *bootstrap.Service.
type SuperAdminEnsurer interface {
	EnsureSuperAdmin(ctx context.Context, email string, contentTypes []string) (bootstrap.Result, error)
}

// BootstrapOptions configures one bootstrap run.
type BootstrapOptions struct {
	Email        string
	ContentTypes []string
	JSONOutput   bool
	Enqueue      bool
	Stdout       io.Writer
	Stderr       io.Writer
}

// BootstrapSummary is the structured outcome printed with --json.
type BootstrapSummary struct {
	Email        string   `json:"email"`
	UserID       string   `json:"user_id,omitempty"`
	Skipped      bool     `json:"skipped"`
	Warning      string   `json:"warning,omitempty"`
	Purged       int64    `json:"purged"`
	Permissions  int      `json:"permissions"`
	ContentTypes []string `json:"content_types"`
	Enqueued     string   `json:"enqueued_task_id,omitempty"`
}

// ParseBootstrapFlags parses the bootstrap sub-command arguments on top of
// defaults taken from configuration.
func ParseBootstrapFlags(args []string, defaults BootstrapOptions) (BootstrapOptions, error) {
	opts := defaults
	flagSet := pflag.NewFlagSet("bootstrap", pflag.ContinueOnError)
	if opts.Stderr != nil {
		flagSet.SetOutput(opts.Stderr)
	}
	flagSet.StringVar(&opts.Email, "email", defaults.Email, "e-mail of the account to promote (default BOOTSTRAP_ADMIN_EMAIL)")
	flagSet.StringSliceVar(&opts.ContentTypes, "content-types", defaults.ContentTypes, "content types that receive a global grant (default BOOTSTRAP_CONTENT_TYPES)")
	flagSet.BoolVar(&opts.JSONOutput, "json", false, "print the summary as JSON")
	flagSet.BoolVar(&opts.Enqueue, "enqueue", false, "enqueue the bootstrap on the worker queue instead of running it inline")
	if err := flagSet.Parse(args); err != nil {
		return BootstrapOptions{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return BootstrapOptions{}, fmt.Errorf("unexpected argument %q", rest[0])
	}
	return opts, nil
}

// BootstrapCLI runs the super-administrator bootstrap from the command line.
type BootstrapCLI struct {
	svc  SuperAdminEnsurer
	jobs *JobsCLI
}

// NewBootstrapCLI constructs the command. jobs may be nil when --enqueue is
// not used.
func NewBootstrapCLI(svc SuperAdminEnsurer, jobs *JobsCLI) *BootstrapCLI {
	return &BootstrapCLI{svc: svc, jobs: jobs}
}

// BootstrapCommand executes the bootstrap and returns the process exit code.
// A missing administrator account prints a warning and exits successfully.
func (c *BootstrapCLI) BootstrapCommand(ctx context.Context, opts BootstrapOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	email := strings.TrimSpace(opts.Email)
	if email == "" {
		fmt.Fprintln(opts.Stderr, "bootstrap: --email is required (or set BOOTSTRAP_ADMIN_EMAIL)")
		return ExitUsage
	}
	for _, name := range opts.ContentTypes {
		if _, err := permission.ParseContentType(name); err != nil {
			fmt.Fprintf(opts.Stderr, "bootstrap: %v (known: %s)\n", err, knownContentTypes())
			return ExitUsage
		}
	}

	if opts.Enqueue {
		return c.enqueue(ctx, email, opts)
	}
	if c == nil || c.svc == nil {
		fmt.Fprintln(opts.Stderr, "bootstrap: service not configured")
		return ExitFailure
	}

	res, err := c.svc.EnsureSuperAdmin(ctx, email, opts.ContentTypes)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "bootstrap: %v\n", err)
		if errors.Is(err, bootstrap.ErrAdminEmailRequired) || errors.Is(err, permission.ErrUnknownContentType) {
			return ExitUsage
		}
		return ExitFailure
	}

	summary := BootstrapSummary{
		Email:        email,
		Skipped:      res.Skipped,
		Purged:       res.Purged,
		Permissions:  len(res.Flags.IDs()),
		ContentTypes: make([]string, 0, len(res.ContentTypes)),
	}
	for _, ct := range res.ContentTypes {
		summary.ContentTypes = append(summary.ContentTypes, string(ct))
	}
	if res.Skipped {
		summary.Warning = res.Warning.Error()
		fmt.Fprintf(opts.Stderr, "bootstrap: warning: %v: %s\n", res.Warning, email)
	} else {
		summary.UserID = res.UserID.String()
	}
	if err := writeSummary(opts, summary); err != nil {
		fmt.Fprintf(opts.Stderr, "bootstrap: %v\n", err)
		return ExitFailure
	}
	return ExitOK
}

func (c *BootstrapCLI) enqueue(ctx context.Context, email string, opts BootstrapOptions) int {
	if c == nil || c.jobs == nil {
		fmt.Fprintln(opts.Stderr, "bootstrap: job queue not configured")
		return ExitFailure
	}
	info, err := c.jobs.EnqueueEnsureSuperAdmin(ctx, email, opts.ContentTypes)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "bootstrap: enqueue: %v\n", err)
		return ExitFailure
	}
	summary := BootstrapSummary{Email: email, ContentTypes: opts.ContentTypes, Enqueued: info.ID}
	if summary.ContentTypes == nil {
		summary.ContentTypes = []string{}
	}
	if err := writeSummary(opts, summary); err != nil {
		fmt.Fprintf(opts.Stderr, "bootstrap: %v\n", err)
		return ExitFailure
	}
	return ExitOK
}

func writeSummary(opts BootstrapOptions, summary BootstrapSummary) error {
	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	switch {
	case summary.Enqueued != "":
		_, err := fmt.Fprintf(opts.Stdout, "enqueued super admin bootstrap for %s (task %s)\n", summary.Email, summary.Enqueued)
		return err
	case summary.Skipped:
		_, err := fmt.Fprintf(opts.Stdout, "skipped: no account registered for %s\n", summary.Email)
		return err
	default:
		_, err := fmt.Fprintf(opts.Stdout, "super admin %s (%s): %d permissions, content types [%s], %d grants replaced\n",
			summary.Email, summary.UserID, summary.Permissions, strings.Join(summary.ContentTypes, ", "), summary.Purged)
		return err
	}
}

func knownContentTypes() string {
	known := permission.ContentTypes()
	names := make([]string, len(known))
	for i, ct := range known {
		names[i] = string(ct)
	}
	return strings.Join(names, ", ")
}
