package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hllvc/dashctl/internal/app"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate against the dashboard backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "account email (prompted if omitted)",
			},
			&cli.BoolFlag{
				Name:    "remember",
				Aliases: []string{"r"},
				Usage:   "keep the session across restarts (persistent token scope)",
			},
		},
		Action: withApp(loginAction),
	}
}

func loginAction(ctx context.Context, a *app.App, cmd *cli.Command) error {
	email := cmd.String("email")
	if email == "" {
		var err error
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	role, err := a.Client.Login(ctx, email, password, cmd.Bool("remember"))
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", email, role)
	return nil
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "End the session and clear stored credentials",
		Action: withApp(logoutAction),
	}
}

func logoutAction(ctx context.Context, a *app.App, _ *cli.Command) error {
	if err := a.Client.Logout(ctx); err != nil {
		return err
	}

	fmt.Println("Logged out")
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echoing it to the terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}
