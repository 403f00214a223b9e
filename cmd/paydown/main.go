package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/kmsantiago/paydown/internal/auth"
)

const usage = `usage: paydown <command>

commands:
  auth set              store the API token in the system credential store
  status                current balance, progress and payoff projection
  pay <amount>          record a payment
  adjust <principal>    correct the outstanding principal; a signed value
                        (+500, -500) adjusts relative to the current balance
  minpay <amount>       override the minimum payment (0 restores the default)
  simulate <monthly> [months]
                        project a payoff schedule without recording anything
  history               recent payments and adjustments
  sync                  probe connectivity and replay queued operations
  reset --yes           wipe all local and remote data
  serve                 run the background sync watcher and ops listener
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if os.Args[1] == "auth" {
		if err := runAuthSet(); err != nil {
			fmt.Fprintf(os.Stderr, "auth set error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Token saved to your system credential store.")
		return
	}

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runAuthSet() error {
	if len(os.Args) != 3 || os.Args[2] != "set" {
		return errors.New("usage: paydown auth set")
	}

	fmt.Print("Enter API token: ")
	token, err := readSecret()
	if err != nil {
		return err
	}
	fmt.Println()

	if strings.TrimSpace(token) == "" {
		return errors.New("empty token")
	}

	return auth.SaveToken(token)
}

func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		value, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(value), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		if len(line) == 0 {
			return "", err
		}
	}
	return strings.TrimSpace(line), nil
}
