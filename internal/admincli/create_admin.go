package admincli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/server/auth"
	"github.com/dmitrijs2005/appli/internal/server/services"
	"github.com/spf13/cobra"
)

var errPasswordMismatch = errors.New("passwords do not match")

func newCreateAdminCmd(rt *Runtime, dsn *string) *cobra.Command {
	var (
		email         string
		name          string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Creates an account with the admin role. The password is prompted for
twice on a terminal, or read from the first line of stdin with --password-stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(rt, cmd.OutOrStdout(), passwordStdin)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			db, rm, err := openDB(cmd.Context(), rt, *dsn)
			if err != nil {
				return fmt.Errorf("create-admin: %w", err)
			}
			defer db.Close()

			// CreateAdmin never issues tokens, so no issuer is needed.
			us := services.NewUserService(db, rm, auth.NewPasswordVault(), nil, rt.Logger)
			u, err := us.CreateAdmin(cmd.Context(), name, email, string(password))
			if err != nil {
				if errors.Is(err, common.ErrorAlreadyExists) {
					return fmt.Errorf("create-admin: an account with email %q already exists", email)
				}
				return fmt.Errorf("create-admin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (id %s)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&name, "name", "", "admin display name")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func readPassword(rt *Runtime, w io.Writer, fromStdin bool) ([]byte, error) {
	if fromStdin || !rt.IsTerminal() {
		line, err := bufio.NewReader(rt.In).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, fmt.Errorf("read password: %w", err)
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}

	fmt.Fprint(w, "Password: ")
	first, err := rt.ReadPassword()
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(w, "Repeat password: ")
	second, err := rt.ReadPassword()
	fmt.Fprintln(w)
	if err != nil {
		common.WipeByteArray(first)
		return nil, fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(second)

	if string(first) != string(second) {
		common.WipeByteArray(first)
		return nil, errPasswordMismatch
	}
	return first, nil
}
