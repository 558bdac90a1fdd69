package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/mycelian/travelmap/internal/model"
)

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type memoryView struct {
	model.Memory
	FormattedDate string `json:"formattedDate"`
}

type mutationResult struct {
	Memory        memoryView `json:"memory"`
	MediaFailures []struct {
		File  string `json:"file"`
		Error string `json:"error"`
	} `json:"mediaFailures"`
	Warning string `json:"warning"`
}

func newClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetError(&apiError{}).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			logger.Debug().Str("method", resp.Request.Method).Str("url", resp.Request.URL).
				Int("status", resp.StatusCode()).Dur("took", resp.Time()).Msg("request")
			return nil
		})
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Message != "" {
			return fmt.Errorf("%s: %s", e.Kind, e.Message)
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// attach adds each path as a "files" part. The returned func closes them.
func attach(req *resty.Request, paths []string) (func(), error) {
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		opened = append(opened, f)
		req.SetFileReader("files", filepath.Base(p), f)
	}
	return closeAll, nil
}

func runAdd(c *resty.Client, place, desc, date string, files []string, out io.Writer) error {
	var res mutationResult
	req := c.R().SetMultipartFormData(map[string]string{
		"place":       place,
		"description": desc,
		"date":        date,
	}).SetResult(&res)
	done, err := attach(req, files)
	if err != nil {
		return err
	}
	defer done()
	if err := check(req.Post("/api/memories")); err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

func runAddMedia(c *resty.Client, id string, files []string, out io.Writer) error {
	var res mutationResult
	req := c.R().SetResult(&res)
	done, err := attach(req, files)
	if err != nil {
		return err
	}
	defer done()
	if err := check(req.Post("/api/memories/" + id + "/media")); err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

func runList(c *resty.Client, query string, out io.Writer) error {
	var res struct {
		Memories []memoryView `json:"memories"`
	}
	req := c.R().SetResult(&res)
	if query != "" {
		req.SetQueryParam("q", query)
	}
	if err := check(req.Get("/api/memories")); err != nil {
		return err
	}
	if len(res.Memories) == 0 {
		fmt.Fprintln(out, "no memories")
		return nil
	}
	for _, m := range res.Memories {
		fmt.Fprintf(out, "%s\t%s\t%s\t%d media\n", m.ID, m.FormattedDate, m.Place, len(m.Media))
	}
	return nil
}

func runShow(c *resty.Client, id string, out io.Writer) error {
	var m memoryView
	if err := check(c.R().SetResult(&m).Get("/api/memories/" + id)); err != nil {
		return err
	}
	printMemory(out, m)
	return nil
}

func runSelect(c *resty.Client, id string, out io.Writer) error {
	var body map[string]*string
	if id == "" {
		body = map[string]*string{"memoryId": nil}
	} else {
		body = map[string]*string{"memoryId": &id}
	}
	var res struct {
		MemoryID string `json:"memoryId"`
	}
	if err := check(c.R().SetBody(body).SetResult(&res).Put("/api/selection")); err != nil {
		return err
	}
	if res.MemoryID == "" {
		fmt.Fprintln(out, "selection cleared")
	} else {
		fmt.Fprintf(out, "selected %s\n", res.MemoryID)
	}
	return nil
}

func printMemory(out io.Writer, m memoryView) {
	fmt.Fprintf(out, "%s  %s (%s)\n", m.ID, m.Place, m.FormattedDate)
	fmt.Fprintf(out, "  at %.5f, %.5f\n", m.Location.Lat, m.Location.Lng)
	if m.Description != "" {
		fmt.Fprintf(out, "  %s\n", m.Description)
	}
	for _, it := range m.Media {
		fmt.Fprintf(out, "  - %s %s\n", it.Kind, it.ID)
	}
}

func printResult(out io.Writer, res mutationResult) {
	printMemory(out, res.Memory)
	for _, f := range res.MediaFailures {
		fmt.Fprintf(out, "  ! %s: %s\n", f.File, f.Error)
	}
	if res.Warning != "" {
		fmt.Fprintf(out, "warning: %s\n", res.Warning)
	}
}
