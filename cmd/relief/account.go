package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relief/relief/internal/domain/identity"
	"github.com/relief/relief/internal/platform/auth"
)

func (a *app) identityService() (*identity.Service, error) {
	client, err := a.backend()
	if err != nil {
		return nil, err
	}
	return identity.NewService(identity.NewRepoAPI(client), a.store, a.logger), nil
}

// readSecret returns flag when set, otherwise the first line of r.
func readSecret(flag string, r io.Reader) string {
	if flag != "" {
		return flag
	}
	line, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func loginCmd(a *app) *cobra.Command {
	var in identity.LoginInput
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Log in as a patient",
		Annotations: annotate(auth.AuthOnly),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.identityService()
			if err != nil {
				return err
			}
			in.Password = readSecret(in.Password, cmd.InOrStdin())
			res, err := svc.Login(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.notifier.Notify(cmd.Context(), res.Notice)
			if res.Identity != nil && res.Identity.Name != "" {
				fmt.Fprintf(a.out, "Welcome, %s.\n", res.Identity.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.PhoneNumber, "phone", "", "10-digit phone number")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (read from stdin when omitted)")
	return cmd
}

func registerCmd(a *app) *cobra.Command {
	var in identity.RegisterInput
	cmd := &cobra.Command{
		Use:         "register",
		Short:       "Create a patient account",
		Annotations: annotate(auth.AuthOnly),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.identityService()
			if err != nil {
				return err
			}
			in.Password = readSecret(in.Password, cmd.InOrStdin())
			if in.ConfirmPassword == "" {
				in.ConfirmPassword = in.Password
			}
			res, err := svc.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.notifier.Notify(cmd.Context(), res.Notice)
			fmt.Fprintln(a.out, "Run `relief login` to continue.")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&in.PhoneNumber, "phone", "", "10-digit phone number")
	f.StringVar(&in.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
	f.StringVar(&in.Password, "password", "", "password (read from stdin when omitted)")
	f.StringVar(&in.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Forget the local session",
		Annotations: annotate(auth.Protected),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := identity.NewService(nil, a.store, a.logger)
			res, err := svc.Logout(cmd.Context())
			if err != nil {
				return err
			}
			jar, err := a.cookieJar()
			if err != nil {
				return err
			}
			if err := jar.Clear(); err != nil {
				return err
			}
			a.notifier.Notify(cmd.Context(), res.Notice)
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "whoami",
		Short:       "Show the logged-in patient",
		Annotations: annotate(auth.Protected),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.store.Identity(cmd.Context())
			if err != nil {
				return err
			}
			renderIdentity(a.out, id)
			return nil
		},
	}
}
