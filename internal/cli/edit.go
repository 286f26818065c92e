package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alpaka/formengine"
	"github.com/alpaka/formengine/pkg/changerequest"
	"github.com/alpaka/formengine/pkg/renderers/tui"
	"github.com/alpaka/formengine/pkg/session"
)

// NewEditCmd creates the edit command.
func NewEditCmd(app *App) *cobra.Command {
	var (
		payload   string
		output    string
		crID      uint
		submit    bool
		title     string
		teamID    uint
		maxRounds int
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Fill a payload interactively in the terminal",
		Long: "Fill a payload interactively in the terminal.\n\n" +
			"With --cr the change request's payload is loaded from the backend and the\n" +
			"session is editable only when the current user may edit that request.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := app.Output()
			page, err := app.Page(ctx)
			if err != nil {
				return err
			}

			opts := []session.Option{session.WithLogger(app.Logger)}
			var s *session.Session
			var client *changerequest.Client
			switch {
			case crID != 0:
				if client, err = app.Client(); err != nil {
					return err
				}
				cr, err := client.GetChangeRequest(ctx, crID)
				if err != nil {
					return err
				}
				me, err := client.Me(ctx)
				if err != nil {
					return err
				}
				s = session.ForChangeRequest(page, cr, changerequest.IdentityOf(me), opts...)
				if title == "" {
					title = cr.Title
				}
			case payload != "":
				data, err := app.readInput(payload)
				if err != nil {
					return err
				}
				s = formengine.NewSession(page, string(data), opts...)
			default:
				s = session.New(page, opts...)
			}

			editor := tui.NewEditor(
				tui.WithPromptDriver(app.Prompt()),
				tui.WithLogger(app.Logger),
				tui.WithMaxRounds(maxRounds),
			)
			if _, err := editor.Edit(ctx, s); err != nil {
				if errors.Is(err, session.ErrNotEditable) {
					out.Warn("this change request is read-only for you")
				}
				return err
			}

			if !submit {
				encoded, err := s.Payload()
				if err != nil {
					return err
				}
				return app.writeOutput(output, []byte(encoded+"\n"))
			}

			if client == nil {
				if client, err = app.Client(); err != nil {
					return err
				}
			}
			cr, err := s.Submit(ctx, client, session.Meta{Title: title, TeamID: teamID, CRID: crID})
			if err != nil {
				var apiErr *changerequest.APIError
				if errors.As(err, &apiErr) {
					s.ApplyRemoteErrors(apiErr.FieldMessages())
					fmt.Fprint(app.Stderr, tui.Summary(s.View()))
				}
				return err
			}
			out.Success(fmt.Sprintf("Change request #%d saved", cr.ID))
			return out.Print(crHeaders, [][]string{crRow(*cr)}, cr)
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "", "Payload file to start from (- reads stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the payload here instead of stdout")
	cmd.Flags().UintVar(&crID, "cr", 0, "Edit the payload of this change request")
	cmd.Flags().BoolVar(&submit, "submit", false, "Submit to the backend instead of printing the payload")
	cmd.Flags().StringVar(&title, "title", "", "Change request title (required when creating)")
	cmd.Flags().UintVar(&teamID, "team", 0, "Requesting team ID (required when creating)")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", 5, "Correction rounds before giving up")

	return cmd
}
