package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-personalization/internal/app"
	"github.com/yungbote/neurobridge-personalization/internal/platform/ctxutil"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

// personalization_batch runs the scheduled jobs once and exits. With -user it
// refreshes insights and achievements for just those users.
func main() {
	os.Exit(run())
}

func run() int {
	var users idList
	var job string
	var timeout time.Duration
	flag.Var(&users, "user", "user id to refresh (repeatable)")
	flag.StringVar(&job, "job", "all", "job to run: expiry, insights, all")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "overall deadline")
	flag.Parse()

	switch job {
	case "expiry", "insights", "all":
	default:
		fmt.Printf("unknown job %q\n", job)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		return 1
	}
	defer application.Close()

	svcCtx := ctxutil.AsService(ctx)
	failed := false

	if len(users) > 0 {
		for _, raw := range users {
			id, err := uuid.Parse(raw)
			if err != nil || id == uuid.Nil {
				fmt.Printf("skip invalid user id %q\n", raw)
				failed = true
				continue
			}
			if err := application.Services.Usecases.RefreshUser(svcCtx, id); err != nil {
				fmt.Printf("refresh %s: %v\n", id, err)
				failed = true
				continue
			}
			fmt.Printf("refreshed %s\n", id)
		}
		return exitCode(failed)
	}

	if job == "expiry" || job == "all" {
		res, err := application.Services.Usecases.ExpireDue(svcCtx)
		if err != nil {
			fmt.Printf("expiry sweep: %v\n", err)
			failed = true
		} else {
			fmt.Printf("expired ttl=%d unanswered=%d\n", res.TTL, res.Unanswered)
		}
	}
	if job == "insights" || job == "all" {
		res, err := application.Services.InsightBatch.RunBatch(svcCtx)
		if err != nil {
			fmt.Printf("insight batch: %v\n", err)
			failed = true
		} else {
			fmt.Printf("insight batch users=%d failed=%d\n", res.Users, res.Failed)
			failed = failed || res.Failed > 0
		}
	}
	return exitCode(failed)
}

func exitCode(failed bool) int {
	if failed {
		return 1
	}
	return 0
}
