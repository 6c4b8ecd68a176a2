package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/medpanel/internal/model"
	"github.com/sells-group/medpanel/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "medpanel.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore initializes the store and applies migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// parseRegions parses a comma-separated region ID list ("1,2,5"). Empty
// means all regions.
func parseRegions(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, eris.Wrapf(model.ErrInvalidArgument, "invalid region id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePanelFilter builds a store.PanelFilter from the shared --regions,
// --from and --to flags.
func parsePanelFilter(regions, from, to string) (store.PanelFilter, error) {
	var f store.PanelFilter
	ids, err := parseRegions(regions)
	if err != nil {
		return f, err
	}
	f.Regions = ids

	if from != "" {
		f.From, err = time.Parse(model.DateFormat, from)
		if err != nil {
			return f, eris.Wrapf(model.ErrInvalidArgument, "invalid --from date %q", from)
		}
	}
	if to != "" {
		f.To, err = time.Parse(model.DateFormat, to)
		if err != nil {
			return f, eris.Wrapf(model.ErrInvalidArgument, "invalid --to date %q", to)
		}
	}
	return f, nil
}
