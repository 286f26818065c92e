package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alpaka/formengine/pkg/changerequest"
	"github.com/alpaka/formengine/pkg/renderers/tui"
	"github.com/alpaka/formengine/pkg/session"
)

// ErrNotPermitted is returned when the caller's role does not allow an action
// on a change request. --force sends the request anyway.
var ErrNotPermitted = errors.New("not permitted")

// requireCapability checks the authenticated user against allowed before a
// review or execution call.
func requireCapability(ctx context.Context, client *changerequest.Client, cr *changerequest.ChangeRequest, allowed func(*changerequest.ChangeRequest, changerequest.Identity) bool, reason string) error {
	me, err := client.Me(ctx)
	if err != nil {
		return err
	}
	if !allowed(cr, changerequest.IdentityOf(me)) {
		return fmt.Errorf("%w: %s (change request #%d is %s)", ErrNotPermitted, reason, cr.ID, cr.ApprovalStatus)
	}
	return nil
}

var crHeaders = []string{"ID", "TITLE", "TEAM", "APPROVAL", "EXECUTION", "CREATED"}

func crRow(cr changerequest.ChangeRequest) []string {
	return []string{
		strconv.FormatUint(uint64(cr.ID), 10),
		cr.Title,
		strconv.FormatUint(uint64(cr.TeamID), 10),
		string(cr.ApprovalStatus),
		string(cr.ExecutionStatus),
		formatTime(cr.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid change request id %q", raw)
	}
	return uint(id), nil
}

// NewCRCmd creates the change-request command group.
func NewCRCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cr",
		Short: "Work with change requests",
	}

	cmd.AddCommand(
		newCRLoginCmd(app),
		newCRListCmd(app),
		newCRGetCmd(app),
		newCRReviewCmd(app),
		newCRExecuteCmd(app),
		newCRCommentCmd(app),
		newCRCommentsCmd(app),
		newCRHistoryCmd(app),
		newCRTeamsCmd(app),
		newCRWhoamiCmd(app),
	)

	return cmd
}

func newCRLoginCmd(app *App) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login USERNAME",
		Short: "Log in and print a bearer token",
		Long: "Log in and print a bearer token. The password is read from --password or\n" +
			"FORMENGINE_PASSWORD. Export the token as FORMENGINE_API_TOKEN for later commands.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("FORMENGINE_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("a password is required")
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			auth, err := client.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			out := app.Output()
			if out.JSONMode() {
				return out.JSON(auth)
			}
			fmt.Fprintln(app.Stdout, auth.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Account password")

	return cmd
}

func newCRListCmd(app *App) *cobra.Command {
	var approval, execution string
	var team uint
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List change requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := changerequest.ListFilter{
				ApprovalStatus:  changerequest.ApprovalStatus(strings.ToUpper(approval)),
				ExecutionStatus: changerequest.ExecutionStatus(strings.ToUpper(execution)),
				TeamID:          team,
				Limit:           limit,
			}
			if filter.ApprovalStatus != "" && !filter.ApprovalStatus.Valid() {
				return fmt.Errorf("unknown approval status %q", approval)
			}
			if filter.ExecutionStatus != "" && !filter.ExecutionStatus.Valid() {
				return fmt.Errorf("unknown execution status %q", execution)
			}

			client, err := app.Client()
			if err != nil {
				return err
			}
			crs, err := client.ListChangeRequests(cmd.Context(), filter)
			if err != nil {
				return err
			}

			rows := make([][]string, len(crs))
			for i, cr := range crs {
				rows[i] = crRow(cr)
			}
			return app.Output().Print(crHeaders, rows, crs)
		},
	}

	cmd.Flags().StringVar(&approval, "approval", "", "Filter by approval status (PENDING_APPROVAL, APPROVED, REJECTED, NEEDS_REWORK)")
	cmd.Flags().StringVar(&execution, "execution", "", "Filter by execution status (DRAFT, IN_PROGRESS, COMPLETED, CANCELED)")
	cmd.Flags().UintVar(&team, "team", 0, "Filter by requesting team ID")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newCRGetCmd(app *App) *cobra.Command {
	var showPayload bool

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show a change request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			cr, err := client.GetChangeRequest(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := app.Output()
			if err := out.Print(crHeaders, [][]string{crRow(*cr)}, cr); err != nil {
				return err
			}
			if !showPayload || out.JSONMode() {
				return nil
			}
			page, err := app.Page(cmd.Context())
			if err != nil {
				return err
			}
			s := session.Load(page, cr.Payload, session.WithEditable(false), session.WithLogger(app.Logger))
			fmt.Fprintln(app.Stdout)
			fmt.Fprint(app.Stdout, tui.Summary(s.View()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPayload, "payload", false, "Print the payload as a form summary")

	return cmd
}

func newCRReviewCmd(app *App) *cobra.Command {
	var (
		decision string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "review ID",
		Short: "Approve or reject a change request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d := changerequest.ReviewDecision(strings.ToUpper(decision))
			if !d.Valid() {
				return fmt.Errorf("decision must be APPROVED or REJECTED, got %q", decision)
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			if !force {
				current, err := client.GetChangeRequest(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := requireCapability(cmd.Context(), client, current, changerequest.CanReview,
					"only a super manager can review a request pending approval"); err != nil {
					return err
				}
			}
			cr, err := client.Review(cmd.Context(), id, d)
			if err != nil {
				return err
			}
			out := app.Output()
			out.Success(fmt.Sprintf("Change request #%d: %s", cr.ID, cr.ApprovalStatus))
			return out.Print(crHeaders, [][]string{crRow(*cr)}, cr)
		},
	}

	cmd.Flags().StringVar(&decision, "decision", "", "APPROVED or REJECTED")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the local role check")
	_ = cmd.MarkFlagRequired("decision")

	return cmd
}

func newCRExecuteCmd(app *App) *cobra.Command {
	var (
		status string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "execute ID",
		Short: "Move an approved change request through execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			to := changerequest.ExecutionStatus(strings.ToUpper(status))
			if !to.Valid() {
				return fmt.Errorf("unknown execution status %q", status)
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			out := app.Output()

			current, err := client.GetChangeRequest(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !force {
				if err := requireCapability(cmd.Context(), client, current, changerequest.CanExecute,
					"only a gateway editor can execute an approved request"); err != nil {
					return err
				}
			}
			if !changerequest.ValidTransition(current.ExecutionStatus, to) {
				out.Warn(fmt.Sprintf("%s -> %s is not a usual transition; sending anyway", current.ExecutionStatus, to))
			}

			cr, err := client.UpdateExecutionStatus(cmd.Context(), id, to)
			if err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Change request #%d: %s", cr.ID, cr.ExecutionStatus))
			return out.Print(crHeaders, [][]string{crRow(*cr)}, cr)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "IN_PROGRESS, COMPLETED or CANCELED")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the local role check")
	_ = cmd.MarkFlagRequired("status")

	return cmd
}

func newCRCommentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comment ID TEXT...",
		Short: "Add a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			comment, err := client.AddComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			out := app.Output()
			if out.JSONMode() {
				return out.JSON(comment)
			}
			out.Success(fmt.Sprintf("Comment #%d added", comment.ID))
			return nil
		},
	}
}

func newCRCommentsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comments ID",
		Short: "List comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			comments, err := client.Comments(cmd.Context(), id)
			if err != nil {
				return err
			}

			rows := make([][]string, len(comments))
			for i, c := range comments {
				author := strconv.FormatUint(uint64(c.UserID), 10)
				if c.User != nil && c.User.Username != "" {
					author = c.User.Username
				}
				rows[i] = []string{formatTime(c.CreatedAt), author, c.Text}
			}
			return app.Output().Print([]string{"CREATED", "AUTHOR", "TEXT"}, rows, comments)
		},
	}
}

func newCRHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show the status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			history, err := client.History(cmd.Context(), id)
			if err != nil {
				return err
			}

			rows := make([][]string, len(history))
			for i, h := range history {
				old := "-"
				if h.OldStatus != nil {
					old = *h.OldStatus
				}
				rows[i] = []string{formatTime(h.Timestamp), h.EventType, old, h.NewStatus}
			}
			return app.Output().Print([]string{"TIME", "EVENT", "FROM", "TO"}, rows, history)
		},
	}
}

func newCRTeamsCmd(app *App) *cobra.Command {
	var mine bool

	cmd := &cobra.Command{
		Use:   "teams",
		Short: "List teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			var teams []changerequest.Team
			if mine {
				teams, err = client.MyTeams(cmd.Context())
			} else {
				teams, err = client.ListTeams(cmd.Context())
			}
			if err != nil {
				return err
			}

			rows := make([][]string, len(teams))
			for i, t := range teams {
				rows[i] = []string{strconv.FormatUint(uint64(t.ID), 10), t.Name, strconv.Itoa(len(t.Members))}
			}
			return app.Output().Print([]string{"ID", "NAME", "MEMBERS"}, rows, teams)
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "Only teams of the current user")

	return cmd
}

func newCRWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			me, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			teams := make([]string, 0, len(me.TeamMemberships))
			for _, m := range me.TeamMemberships {
				teams = append(teams, strconv.FormatUint(uint64(m.TeamID), 10))
			}
			return app.Output().Print(
				[]string{"ID", "USERNAME", "SUPER_MANAGER", "GATEWAY_EDITOR", "TEAMS"},
				[][]string{{
					strconv.FormatUint(uint64(me.ID), 10),
					me.Username,
					strconv.FormatBool(me.IsSuperManager),
					strconv.FormatBool(me.IsGatewayEditor),
					strings.Join(teams, ","),
				}},
				me,
			)
		},
	}
}
