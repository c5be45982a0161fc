package commands

import (
	"bufio"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/klabast/wb-services/route-reservations/internal/app"
)

func newHashPasswordCmd() *cobra.Command {
	var (
		overwrite      bool
		insecureUnmask bool
		file           string
	)

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Create the admin secret file with an Argon2id hash",
		Long: "Creates the admin secret file with a hashed password (Argon2id).\n\n" +
			"Environment Variables:\n" +
			"  ADMIN_SECRET_FILE    Path to secret file (default: ./admin.secret next to the binary)",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var password, passwordConfirm string

			if insecureUnmask {
				fmt.Fprintf(os.Stderr, "⚠️  WARNING: Password will be visible on screen!\n")
				fmt.Print("Enter password:   ")
				if _, err := fmt.Scanln(&password); err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				fmt.Print("Confirm password: ")
				if _, err := fmt.Scanln(&passwordConfirm); err != nil {
					return fmt.Errorf("reading password confirmation: %w", err)
				}
			} else {
				password = readPasswordWithMask("Enter password:   ")
				passwordConfirm = readPasswordWithMask("Confirm password: ")
			}

			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}
			if password != passwordConfirm {
				return fmt.Errorf("passwords do not match")
			}

			return app.CreateSecretFile(file, password, overwrite)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing secret file without asking")
	cmd.Flags().BoolVar(&insecureUnmask, "insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	cmd.Flags().StringVar(&file, "file", "", "Secret file path (overrides ADMIN_SECRET_FILE)")
	return cmd
}

// readPasswordWithMask reads password input and displays asterisks
func readPasswordWithMask(prompt string) string {
	fmt.Print(prompt)

	oldState, err := term.GetState(int(syscall.Stdin))
	if err != nil {
		// Fallback to hidden input if we can't set raw mode
		password, _ := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		return string(password)
	}
	defer term.Restore(int(syscall.Stdin), oldState)

	if _, err := term.MakeRaw(int(syscall.Stdin)); err != nil {
		password, _ := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		return string(password)
	}

	var password []byte
	reader := bufio.NewReader(os.Stdin)

	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			break
		}

		switch char {
		case '\n', '\r':
			fmt.Print("\r\n")
			return string(password)
		case 127, 8: // Backspace or Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Print("\b \b")
			}
		case 3: // Ctrl+C
			term.Restore(int(syscall.Stdin), oldState)
			fmt.Println()
			os.Exit(1)
		default:
			// Only accept printable characters
			if char >= 32 && char <= 126 {
				password = append(password, byte(char))
				fmt.Print("*")
			}
		}
	}

	fmt.Print("\r\n")
	return string(password)
}
