package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"
)

// Options are shared by every command.
type Options struct {
	Config string `short:"c" long:"config" description:"config file (default: .envrc in . or ./config)"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	options := &Options{}
	parser := flags.NewParser(options, flags.Default)
	parser.Name = "lostfound"

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"serve", "Run the HTTP API",
			"Serve the item API and stored photos. Creates the admin account on first run.",
			&serveCommand{options: options}},
		{"createadmin", "Create a staff account",
			"Create a staff account. A random password is generated and printed when none is given.",
			&createAdminCommand{options: options}},
		{"setstaff", "Grant or revoke staff status", "",
			&setStaffCommand{options: options}},
		{"setpassword", "Reset a user's password",
			"Replace a user's password. A random password is generated and printed when none is given.",
			&setPasswordCommand{options: options}},
		{"rotatetoken", "Replace a user's API token", "",
			&rotateTokenCommand{options: options}},
		{"deleteuser", "Delete a user with their token, items and photos", "",
			&deleteUserCommand{options: options}},
		{"deleteitem", "Delete an item and its photo", "",
			&deleteItemCommand{options: options}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return err
		}
	}

	_, err := parser.ParseArgs(args)
	return err
}
