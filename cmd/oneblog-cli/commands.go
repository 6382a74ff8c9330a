package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	ob "github.com/panyam/oneblog"
	"github.com/panyam/oneblog/client"
	"github.com/panyam/oneblog/client/stores/fs"
)

const defaultServer = "http://localhost:4000"

type cli struct {
	client *client.BlogClient
	store  *fs.FSCredentialStore
	prompt *prompter
	out    io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"signup":          {"signup [-name NAME] [-email EMAIL]", cmdSignup},
	"login":           {"login [-email EMAIL]", cmdLogin},
	"logout":          {"logout", cmdLogout},
	"whoami":          {"whoami", cmdWhoami},
	"forgot-password": {"forgot-password [-email EMAIL]", cmdForgotPassword},
	"reset-password":  {"reset-password [-email EMAIL] [-code CODE]", cmdResetPassword},
	"list":            {"list", cmdList},
	"create":          {"create -title TITLE -description TEXT", cmdCreate},
	"edit":            {"edit [-title TITLE] [-description TEXT] BLOG_ID", cmdEdit},
	"delete":          {"delete BLOG_ID", cmdDelete},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: oneblog-cli [-server URL] [-credentials PATH] <command> [flags]")
	fmt.Fprintln(w, "commands:")
	for _, name := range []string{"signup", "login", "logout", "whoami", "forgot-password", "reset-password", "list", "create", "edit", "delete"} {
		fmt.Fprintln(w, "  "+commands[name].usage)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("oneblog-cli", flag.ContinueOnError)
	global.SetOutput(stdout)
	server := global.String("server", "", "server URL (default: last server logged into, else "+defaultServer+")")
	credPath := global.String("credentials", "", "credentials file (default: user config dir)")
	global.Usage = func() { usage(stdout) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		usage(stdout)
		return errors.New("no command given")
	}

	name := global.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(stdout)
		return fmt.Errorf("unknown command %q", name)
	}

	store, err := fs.NewFSCredentialStore(*credPath, fs.DefaultAppName)
	if err != nil {
		return err
	}
	serverURL := *server
	if serverURL == "" {
		serverURL = store.DefaultServer()
	}
	if serverURL == "" {
		serverURL = defaultServer
	}

	c := &cli{
		client: client.NewBlogClient(serverURL, store),
		store:  store,
		prompt: newPrompter(stdin, stdout),
		out:    stdout,
	}
	err = cmd.run(ctx, c, global.Args()[1:])
	if errors.Is(err, client.ErrNotLoggedIn) {
		return fmt.Errorf("not logged in to %s; run \"oneblog-cli login\" first", c.client.ServerURL())
	}
	return err
}

func (c *cli) flags(name string) *flag.FlagSet {
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.SetOutput(c.out)
	return fset
}

func cmdSignup(ctx context.Context, c *cli, args []string) error {
	fset := c.flags("signup")
	name := fset.String("name", "", "display name")
	email := fset.String("email", "", "email address")
	if err := fset.Parse(args); err != nil {
		return err
	}

	var req ob.SignupRequest
	var err error
	if req.Name, err = c.prompt.valueOr(*name, "Name"); err != nil {
		return err
	}
	if req.Email, err = c.prompt.valueOr(*email, "Email"); err != nil {
		return err
	}
	if req.Password, err = c.prompt.password("Password"); err != nil {
		return err
	}
	if err := c.client.Signup(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signup successful. Log in with: oneblog-cli login -email", req.Email)
	return nil
}

func cmdLogin(ctx context.Context, c *cli, args []string) error {
	fset := c.flags("login")
	email := fset.String("email", "", "email address")
	if err := fset.Parse(args); err != nil {
		return err
	}
	addr, err := c.prompt.valueOr(*email, "Email")
	if err != nil {
		return err
	}
	password, err := c.prompt.password("Password")
	if err != nil {
		return err
	}
	if _, err := c.client.Login(ctx, addr, password); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in to %s as %s\n", c.client.ServerURL(), addr)
	return nil
}

func cmdLogout(ctx context.Context, c *cli, args []string) error {
	if err := c.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func cmdWhoami(ctx context.Context, c *cli, args []string) error {
	cred, err := c.client.GetCredential()
	if err != nil {
		return err
	}
	if cred == nil || cred.IsExpired() {
		return client.ErrNotLoggedIn
	}
	fmt.Fprintf(c.out, "%s on %s\n", cred.UserEmail, c.client.ServerURL())
	if !cred.ExpiresAt.IsZero() {
		fmt.Fprintf(c.out, "session expires %s\n", cred.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func cmdForgotPassword(ctx context.Context, c *cli, args []string) error {
	fset := c.flags("forgot-password")
	email := fset.String("email", "", "email address")
	if err := fset.Parse(args); err != nil {
		return err
	}
	addr, err := c.prompt.valueOr(*email, "Email")
	if err != nil {
		return err
	}
	if err := c.client.ForgotPassword(ctx, addr); err != nil {
		return err
	}
	fmt.Fprintln(c.out, ob.MsgForgotPasswordSent)
	return nil
}

func cmdResetPassword(ctx context.Context, c *cli, args []string) error {
	fset := c.flags("reset-password")
	email := fset.String("email", "", "email address")
	code := fset.String("code", "", "code from the reset email")
	if err := fset.Parse(args); err != nil {
		return err
	}

	var req ob.ResetPasswordRequest
	var err error
	if req.Email, err = c.prompt.valueOr(*email, "Email"); err != nil {
		return err
	}
	if req.Code, err = c.prompt.valueOr(*code, "Code"); err != nil {
		return err
	}
	if req.NewPassword, err = c.prompt.password("New password"); err != nil {
		return err
	}
	if err := c.client.ResetPassword(ctx, req); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Password reset successful")
	return nil
}

func cmdList(ctx context.Context, c *cli, args []string) error {
	blogs, err := c.client.ListBlogs(ctx)
	if err != nil {
		return err
	}
	if len(blogs) == 0 {
		fmt.Fprintln(c.out, "No blogs yet")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUPDATED")
	for _, b := range blogs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Title, b.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func cmdCreate(ctx context.Context, c *cli, args []string) error {
	fset := c.flags("create")
	title := fset.String("title", "", "blog title")
	description := fset.String("description", "", "blog body")
	if err := fset.Parse(args); err != nil {
		return err
	}
	blog, err := c.client.CreateBlog(ctx, ob.CreateBlogRequest{Title: *title, Description: *description})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Blog created:", blog.ID)
	return nil
}

func cmdEdit(ctx context.Context, c *cli, args []string) error {
	fset := c.flags("edit")
	title := fset.String("title", "", "new title")
	description := fset.String("description", "", "new body")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return errors.New("usage: oneblog-cli edit [-title TITLE] [-description TEXT] BLOG_ID")
	}

	// only flags given on the command line are sent, so an explicit
	// -title "" still reaches the server
	var update ob.BlogUpdate
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			update.Title = title
		case "description":
			update.Description = description
		}
	})
	if update.Title == nil && update.Description == nil {
		return errors.New("nothing to change: pass -title and/or -description")
	}

	blog, err := c.client.EditBlog(ctx, fset.Arg(0), update)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Blog updated: %s (%s)\n", blog.ID, strings.TrimSpace(blog.Title))
	return nil
}

func cmdDelete(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: oneblog-cli delete BLOG_ID")
	}
	if err := c.client.DeleteBlog(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Blog deleted")
	return nil
}
