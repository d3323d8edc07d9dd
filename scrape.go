package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/kova98/yars/enums"
	"github.com/kova98/yars/export"
	"github.com/kova98/yars/handlers"
	"github.com/kova98/yars/sources"
)

// ScrapedPost is one record of the scrape command's output file.
type ScrapedPost struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	CreatedUTC    string `json:"created_utc"`
	Body          string `json:"body"`
	LinkFlairText string `json:"link_flair_text"`
}

var commands = map[string]func(ctx context.Context, scraper handlers.Scraper, args []string, out io.Writer) error{
	"scrape":  scrapeCommand,
	"user":    userCommand,
	"search":  searchCommand,
	"details": detailsCommand,
}

func isCommand(name string) bool {
	_, ok := commands[name]
	return ok
}

func runCommand(ctx context.Context, scraper handlers.Scraper, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("no command given")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return errors.Errorf("unknown command %q", args[0])
	}
	return cmd(ctx, scraper, args[1:], out)
}

func scrapeCommand(ctx context.Context, scraper handlers.Scraper, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(out)
	target := fs.String("target", "", "subreddit or user URL, or a bare name")
	category := fs.String("category", string(enums.CategoryNew), "hot, top, new, userhot, usertop or usernew")
	limit := fs.Int("limit", 50, "maximum number of posts")
	timeFilter := fs.String("t", string(enums.TimeFilterAll), "time filter for top listings")
	flairs := fs.String("flair", "", "comma separated flair allow-list")
	outPath := fs.String("out", "subreddit_data.json", "JSON file to append posts to")
	csvPath := fs.String("csv", "", "also write the file's records as CSV")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *target == "" {
		return errors.New("scrape: -target is required")
	}

	posts, err := scraper.FetchSubredditPosts(ctx, *target, enums.Category(*category), *limit, enums.TimeFilter(*timeFilter), splitFlag(*flairs))
	if err != nil {
		return errors.Wrap(err, "scrape: fetch posts")
	}

	file := export.NewJSONFile[ScrapedPost](*outPath)
	records := file.Load()

	for i, post := range posts {
		details, err := scraper.ScrapePostDetails(ctx, post.Permalink)
		fmt.Fprintf(out, "Processing post %d\n", i+1)
		if err != nil || details == nil {
			fmt.Fprintf(out, "Failed to scrape details for post: %s\n", post.Title)
			continue
		}

		records = append(records, ScrapedPost{
			Title:         post.Title,
			Author:        post.Author,
			CreatedUTC:    post.Date,
			Body:          details.Body,
			LinkFlairText: post.LinkFlairText,
		})
		if err := file.Write(records); err != nil {
			return errors.Wrap(err, "scrape: save posts")
		}
		fmt.Fprintf(out, "Data successfully saved to %s\n", file.Path())
	}

	if *csvPath != "" {
		if err := writeScrapedCSV(*csvPath, records); err != nil {
			return errors.Wrap(err, "scrape: export csv")
		}
	}
	return nil
}

func writeScrapedCSV(path string, records []ScrapedPost) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Title, r.Author, r.CreatedUTC, r.Body, r.LinkFlairText})
	}
	return export.WriteCSV(path, []string{"title", "author", "created_utc", "body", "link_flair_text"}, rows)
}

func userCommand(ctx context.Context, scraper handlers.Scraper, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("user", flag.ContinueOnError)
	fs.SetOutput(out)
	name := fs.String("name", "", "Reddit username")
	limit := fs.Int("limit", 10, "maximum number of items")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("user: -name is required")
	}

	return printJSON(out, scraper.ScrapeUserData(ctx, *name, *limit))
}

func searchCommand(ctx context.Context, scraper handlers.Scraper, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(out)
	query := fs.String("q", "", "search query")
	subreddit := fs.String("subreddit", "", "restrict the search to this subreddit")
	sort := fs.String("sort", "", "relevance, hot, top, new or comments")
	timeFilter := fs.String("t", "", "hour, day, week, month, year or all")
	limit := fs.Int("limit", 10, "maximum number of results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*query) == "" {
		return errors.New("search: -q is required")
	}

	opts := sources.SearchOptions{
		Limit:      *limit,
		Sort:       enums.SearchSort(*sort),
		TimeFilter: enums.TimeFilter(*timeFilter),
	}
	var (
		results any
		err     error
	)
	if *subreddit != "" {
		results, err = scraper.SearchSubreddit(ctx, *subreddit, *query, opts)
	} else {
		results, err = scraper.SearchReddit(ctx, *query, opts)
	}
	if err != nil {
		return errors.Wrap(err, "search")
	}
	return printJSON(out, results)
}

func detailsCommand(ctx context.Context, scraper handlers.Scraper, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("details", flag.ContinueOnError)
	fs.SetOutput(out)
	permalink := fs.String("permalink", "", "post permalink or full URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *permalink == "" {
		return errors.New("details: -permalink is required")
	}

	details, err := scraper.ScrapePostDetails(ctx, *permalink)
	if err != nil {
		return errors.Wrap(err, "details")
	}
	return printJSON(out, details)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

func splitFlag(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
