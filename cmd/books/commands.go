package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aoideee/bookshelf/internal/config"
	"github.com/aoideee/bookshelf/internal/controller"
	"github.com/aoideee/bookshelf/internal/data"
	"github.com/aoideee/bookshelf/internal/i18n"
	"github.com/aoideee/bookshelf/internal/validator"
)

// cli holds the state shared by every subcommand for one invocation.
type cli struct {
	out, errOut io.Writer

	driver, dsn, lang string

	store   *data.BookModel
	books   *controller.Controller
	printer *i18n.Printer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "books",
		Short:         "Manage a personal list of books",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Errors are silenced so report can localize them; setup failures
		// never reach the RunE wrapper below and are printed here.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := c.open(cmd)
			if err != nil {
				c.reportSetup(err)
			}
			return err
		},
	}

	root.PersistentFlags().StringVar(&c.driver, "db-driver", "", "Store driver (sqlite|postgres), overrides config")
	root.PersistentFlags().StringVar(&c.dsn, "db-dsn", "", "Store DSN, overrides config")
	root.PersistentFlags().StringVar(&c.lang, "lang", "", "Message language (en|ru), overrides config")

	root.AddCommand(
		c.addCmd(),
		c.editCmd(),
		c.deleteCmd(),
		c.listCmd(),
		c.searchCmd(),
		c.showCmd(),
	)

	// Cobra skips post-run hooks when RunE fails, so the final save and
	// error reporting happen here for every subcommand.
	for _, sub := range root.Commands() {
		run := sub.RunE
		sub.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if cerr := c.close(cmd); err == nil {
				err = cerr
			}
			if err != nil {
				c.report(err)
			}
			return err
		}
	}

	return root
}

// open loads configuration, opens the store and builds the controller.
func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.driver != "" {
		cfg.Store.Driver = c.driver
	}
	if c.dsn != "" {
		cfg.Store.DSN = c.dsn
	}
	if c.lang == "" {
		c.lang = cfg.Locale
	}

	logger := config.NewLogger(cfg.Log, c.errOut)

	tr, err := i18n.New()
	if err != nil {
		return err
	}
	c.printer = tr.Printer(c.lang)

	c.store, err = data.Open(cmd.Context(), cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return err
	}
	c.books = controller.New(logger, c.store)
	return nil
}

// close runs the background hook and releases the store.
func (c *cli) close(cmd *cobra.Command) error {
	if c.store == nil {
		return nil
	}
	err := c.books.Background(cmd.Context())
	if cerr := c.store.Close(); err == nil {
		err = cerr
	}
	c.store = nil
	return err
}

// report prints err as a localized "title: message" alert, followed by any field errors.
func (c *cli) report(err error) {
	if c.printer == nil {
		fmt.Fprintln(c.errOut, err)
		return
	}
	title := c.printer.Text(data.MsgErrorTitle)

	var ve *data.ValidationError
	if !errors.As(err, &ve) {
		fmt.Fprintf(c.errOut, "%s: %s\n", title, c.printer.Text(data.MessageFor(err)))
		return
	}

	// The localized validation message is about title and author only;
	// other fields (such as sort) are listed on their own.
	_, badTitle := ve.Errors["title"]
	_, badAuthor := ve.Errors["author"]
	if badTitle || badAuthor {
		fmt.Fprintf(c.errOut, "%s: %s\n", title, c.printer.Text(data.MsgValidation))
	} else {
		fmt.Fprintf(c.errOut, "%s:\n", title)
	}
	for _, field := range slices.Sorted(maps.Keys(ve.Errors)) {
		fmt.Fprintf(c.errOut, "  %s %s\n", field, ve.Errors[field])
	}
}

// reportSetup prints a failure to load config or open the store. The raw
// error is shown since no user-facing message describes it.
func (c *cli) reportSetup(err error) {
	title := "Error"
	if c.printer != nil {
		title = c.printer.Text(data.MsgErrorTitle)
	}
	fmt.Fprintf(c.errOut, "%s: %v\n", title, err)
}

// reportNotices prints save failures recorded during the command.
func (c *cli) reportNotices() {
	for _, n := range c.books.Notices() {
		fmt.Fprintf(c.errOut, "%s: %s\n", c.printer.Text(data.MsgErrorTitle), c.printer.Text(n.Message))
	}
}

func (c *cli) printBooks(books []*data.Book) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Title, b.Author)
	}
	tw.Flush()
}

func (c *cli) printBook(b *data.Book) {
	fmt.Fprintf(c.out, "id:          %s\n", b.ID)
	fmt.Fprintf(c.out, "title:       %s\n", b.Title)
	fmt.Fprintf(c.out, "author:      %s\n", b.Author)
	fmt.Fprintf(c.out, "description: %s\n", b.Description)
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, data.ErrRecordNotFound)
	}
	return id, nil
}

func (c *cli) addCmd() *cobra.Command {
	var form controller.Form

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.books.SetDraft(form)
			book, err := c.books.SubmitDraft(cmd.Context())
			if err != nil {
				return err
			}
			c.reportNotices()
			c.printBook(book)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "Book title (at least 3 characters)")
	cmd.Flags().StringVar(&form.Author, "author", "", "Book author (at least 3 characters)")
	cmd.Flags().StringVar(&form.Description, "description", "", "Optional description")
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var title, author, description string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a book; omitted fields keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			session, err := c.books.BeginEdit(cmd.Context(), id)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				session.Title = title
			}
			if cmd.Flags().Changed("author") {
				session.Author = author
			}
			if cmd.Flags().Changed("description") {
				session.Description = description
			}

			book, err := session.Save(cmd.Context())
			if err != nil {
				return err
			}
			c.reportNotices()
			c.printBook(book)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&author, "author", "", "New author")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.books.DeleteBook(cmd.Context(), id); err != nil {
				return err
			}
			c.reportNotices()
			fmt.Fprintln(c.out, c.printer.Text(data.MsgDeleted))
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var sort string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := data.Filters{Page: 1, Sort: sort, SortSafeList: data.SortSafeList}

			v := validator.New()
			data.ValidateFilters(v, filters)
			if !v.Valid() {
				return &data.ValidationError{Errors: v.Errors}
			}

			books, _ := filters.Apply(c.books.Search(cmd.Context(), ""))
			c.printBooks(books)
			return nil
		},
	}
	cmd.Flags().StringVar(&sort, "sort", "", "Sort by title, author or created_at; prefix with - for descending")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Find books whose title or author contains QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printBooks(c.books.Search(cmd.Context(), args[0]))
			return nil
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			book, err := c.books.Book(cmd.Context(), id)
			if err != nil {
				return err
			}
			c.printBook(book)
			return nil
		},
	}
}
