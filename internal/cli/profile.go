package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/config"
	"github.com/fredericrous/qontrol/internal/render"
)

const defaultPort = 8000

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Manage cluster profiles",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List configured profiles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.loadStore()
				if err != nil {
					return err
				}
				render.Profiles(cmd.OutOrStdout(), s)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show [name]",
			Short: "Show one profile (token masked)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.loadStore()
				if err != nil {
					return err
				}
				var p config.Profile
				if len(args) == 1 {
					p, err = s.Get(args[0])
				} else {
					p, err = a.resolveProfile()
				}
				if err != nil {
					return err
				}
				render.Profile(cmd.OutOrStdout(), p, p.Name == s.DefaultProfile)
				return nil
			},
		},
		newProfileAddCmd(a),
		&cobra.Command{
			Use:     "remove <name>",
			Aliases: []string{"rm"},
			Short:   "Remove a profile",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.loadStore()
				if err != nil {
					return err
				}
				if err := s.Remove(args[0]); err != nil {
					return err
				}
				if err := s.Save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile %q removed.\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-default <name>",
			Short: "Make a profile the default for single-cluster commands",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.loadStore()
				if err != nil {
					return err
				}
				if err := s.SetDefault(args[0]); err != nil {
					return err
				}
				if err := s.Save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default profile is now %q.\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

type addOptions struct {
	host     string
	port     int
	token    string
	username string
	password string
	insecure bool
	setDef   bool
	timeout  int
}

func newProfileAddCmd(a *app) *cobra.Command {
	o := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a profile",
		Long: `Add a profile. Pass --token to store an existing access token, or
--username (and --password) to log in and create a long-lived access token.
Missing values are prompted for when stdin is a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadStore()
			if err != nil {
				return err
			}
			missing := o.host == "" || (o.token == "" && o.password == "")
			if missing && isTerminal(os.Stdin) {
				if err := promptProfile(o); err != nil {
					return err
				}
			}
			p := config.Profile{Name: args[0], Host: o.host, Port: o.port, Insecure: o.insecure, Token: o.token}

			if p.Token == "" {
				if o.username == "" {
					return errors.New("either --token or --username is required")
				}
				tok, err := api.CreateAccessToken(cmd.Context(), api.Config{
					BaseURL: p.URL(), Insecure: p.Insecure, Timeout: seconds(o.timeout),
				}, o.username, o.password)
				if err != nil {
					return err
				}
				p.Token = tok
			}

			if err := s.Add(p); err != nil {
				return err
			}
			if o.setDef {
				if err := s.SetDefault(p.Name); err != nil {
					return err
				}
			}
			if err := s.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved to %s.\n", p.Name, s.Path())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.host, "host", "", "cluster host name or address")
	f.IntVar(&o.port, "port", defaultPort, "REST API port")
	f.StringVar(&o.token, "token", "", "existing access token")
	f.StringVarP(&o.username, "username", "u", "", "log in as this user to create an access token")
	f.StringVar(&o.password, "password", "", "password for --username")
	f.BoolVar(&o.insecure, "insecure", false, "skip TLS certificate verification")
	f.BoolVar(&o.setDef, "default", false, "make this the default profile")
	f.IntVar(&o.timeout, "timeout", 30, "login timeout in seconds")
	return cmd
}

// promptProfile asks for whatever the flags left empty.
func promptProfile(o *addOptions) error {
	var fields []huh.Field
	if o.host == "" {
		fields = append(fields, huh.NewInput().Title("Host").Value(&o.host).Validate(required("host")))
	}
	port := strconv.Itoa(o.port)
	fields = append(fields, huh.NewInput().Title("Port").Value(&port).Validate(func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 65535 {
			return errors.New("port must be 1-65535")
		}
		return nil
	}))
	if o.token == "" && o.username == "" {
		fields = append(fields, huh.NewInput().Title("Username").
			Description("Leave empty to paste an access token instead").Value(&o.username))
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}
	o.port, _ = strconv.Atoi(port)

	if o.token == "" && o.username != "" && o.password == "" {
		err := huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&o.password).Run()
		if err != nil {
			return err
		}
	}
	if o.token == "" && o.username == "" {
		err := huh.NewInput().Title("Access token").EchoMode(huh.EchoModePassword).
			Value(&o.token).Validate(required("token")).Run()
		if err != nil {
			return err
		}
	}
	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
