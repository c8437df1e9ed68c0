package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/parkauth"
	"github.com/MrEthical07/parkauth/api"
	"github.com/MrEthical07/parkauth/metrics/export/prometheus"
)

const shellHelp = `commands:
  login <email> <password>                      sign in
  register <email> <username> <password> <name> create an account
  me                                            fetch the full profile
  go <path>                                     navigate through the guard
  refresh                                       renew the access token now
  logout                                        end the session
  status                                        show session state
  notice                                        show the current notification
  metrics                                       print metrics (Prometheus text)
  help                                          this text
  quit                                          leave the shell
`

func newShellCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session against the backend",
		Long: `Start an interactive shell. The session check runs first, restoring a
persisted profile when --profile-path points at one. Notifications are
printed as they appear.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := newSyncWriter(cmd.OutOrStdout())
			client, err := opts.client(out, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			sh := &shell{client: client, out: out}
			return sh.run(cmd.Context(), bufio.NewScanner(cmd.InOrStdin()))
		},
	}
}

type shell struct {
	client *parkauth.Client
	out    *syncWriter
}

func (s *shell) run(ctx context.Context, in *bufio.Scanner) error {
	s.client.Bootstrap(ctx)
	s.status()

	for {
		s.out.Printf("> ")
		if !in.Scan() {
			s.out.Printf("\n")
			return in.Err()
		}
		quit, err := s.exec(ctx, in.Text())
		if err != nil {
			s.out.Printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		s.out.Printf("%s", shellHelp)
	case "login":
		if len(args) != 2 {
			return false, errors.New("usage: login <email> <password>")
		}
		user, err := s.client.SignIn(ctx, args[0], args[1])
		if err != nil {
			return false, err
		}
		s.out.Printf("signed in as %s (%s)\n", user.Username, user.Role)
	case "register":
		if len(args) < 4 {
			return false, errors.New("usage: register <email> <username> <password> <full name>")
		}
		user, err := s.client.Register(ctx, api.RegisterRequest{
			Email:    args[0],
			Username: args[1],
			Password: args[2],
			FullName: strings.Join(args[3:], " "),
		})
		if err != nil {
			return false, err
		}
		s.out.Printf("registered %s <%s>\n", user.Username, user.Email)
	case "me":
		p, err := s.client.FetchProfile(ctx)
		if err != nil {
			return false, err
		}
		s.out.Printf("name:     %s\nusername: %s\nemail:    %s\nphone:    %s\naddress:  %s\npincode:  %s\n",
			p.FullName, p.Username, p.Email, p.PhoneNumber, p.Address, p.Pincode)
	case "go":
		if len(args) != 1 {
			return false, errors.New("usage: go <path>")
		}
		res, err := s.client.Navigate(ctx, args[0])
		if err != nil {
			return false, err
		}
		s.out.Printf("%s -> %s (%s)\n", res.Outcome, res.Location.Path, res.Location.Route.Name)
	case "refresh":
		if err := s.client.Refresh(ctx); err != nil {
			return false, err
		}
		s.out.Printf("token renewed\n")
	case "logout":
		s.client.Logout(ctx)
		s.out.Printf("signed out\n")
	case "status":
		s.status()
	case "notice":
		n := s.client.Notifications().Current()
		if !n.Visible {
			s.out.Printf("no notification\n")
			return false, nil
		}
		s.out.Printf("[%s] %s (%s)\n", n.Severity, n.Text, n.Phase)
	case "metrics":
		s.out.Printf("%s", prometheus.NewExporter(s.client).Render())
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, nil
}

func (s *shell) status() {
	snap := s.client.Session().Snapshot()
	s.out.Printf("state: %s", snap.State)
	if snap.User != nil {
		s.out.Printf(" user=%s role=%s", snap.User.Username, snap.User.Role)
	}
	if !snap.ExpiresAt.IsZero() {
		s.out.Printf(" expires=%s", snap.ExpiresAt.Format(time.RFC3339))
	}
	if snap.RenewalArmed {
		s.out.Printf(" renew_at=%s", snap.RenewAt.Format(time.RFC3339))
	}
	if loc, ok := s.client.Router().Current(); ok {
		s.out.Printf(" at=%s", loc.Path)
	}
	s.out.Printf("\n")
}
