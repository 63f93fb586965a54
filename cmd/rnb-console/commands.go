package main

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rnb-admin/internal/filter"
	"rnb-admin/internal/logger"
	"rnb-admin/internal/mapview"
	"rnb-admin/internal/model"
	"rnb-admin/internal/output"

	"github.com/spf13/cobra"
)

var itemHeaders = []string{"ID", "NAME", "ADDRESS", "SCORE", "RNB IDS"}

func itemRow(it model.Item) []string {
	return []string{it.ID, it.Name, it.Address, it.Score, strings.Join(it.RNBIDs, ", ")}
}

func newListCmd(a *app) *cobra.Command {
	var (
		query    string
		mode     string
		withName bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, optionally filtered",
		Example: `  rnb-console list
  rnb-console list --query 75056 --mode reference
  rnb-console list -q "rue de rivoli" -m address -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, ok := filter.ParseMode(mode)
			if !ok {
				return fmt.Errorf("invalid filter mode %q (all, reference, rnb, address)", mode)
			}
			f, err := a.outputFormat()
			if err != nil {
				return err
			}
			items, err := a.catalog.FetchItems(cmd.Context())
			if err != nil {
				return err
			}
			st := filter.NewState(filter.Options{ReferenceIncludesName: withName})
			st.SetItems(items)
			st.SetMode(m)
			st.SetQuery(query)
			visible := st.Visible()

			rows := make([][]string, 0, len(visible))
			for _, it := range visible {
				rows = append(rows, itemRow(it))
			}
			return output.Write(a.out, f, output.Table{Headers: itemHeaders, Rows: rows, Data: visible})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search text (case-insensitive substring)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "all", "Filter mode: all, reference, rnb, address")
	cmd.Flags().BoolVar(&withName, "reference-name", false, "Also match item names in reference mode")
	return cmd
}

// showView：条目详情与取景信息
type showView struct {
	Item    model.Item       `json:"item"`
	Bounds  *mapview.Bounds  `json:"bounds,omitempty"`
	Markers []mapview.Marker `json:"markers"`
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one item with its map framing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.outputFormat()
			if err != nil {
				return err
			}
			items, err := a.catalog.FetchItems(cmd.Context())
			if err != nil {
				return err
			}
			st := filter.NewState(filter.Options{})
			st.SetItems(items)
			if !st.Select(args[0]) {
				return fmt.Errorf("item %s not found", args[0])
			}
			it, _ := st.Selected()

			view := showView{Item: it, Markers: mapview.Markers(items, it.ID)}
			pts := it.Zone
			if len(pts) == 0 {
				pts = []model.LatLng{it.Coordinates}
			}
			if b, ok := mapview.BoundsOf(pts); ok {
				view.Bounds = &b
			}
			rows := [][]string{
				{"id", it.ID},
				{"name", it.Name},
				{"address", it.Address},
				{"score", it.Score},
				{"surface", it.Surface},
				{"usage", it.Usage},
				{"gestionnaire", it.Gestionnaire},
				{"rnb ids", strings.Join(it.RNBIDs, ", ")},
				{"coordinates", formatLatLng(it.Coordinates)},
			}
			if view.Bounds != nil {
				rows = append(rows, []string{"bounds", formatLatLng(view.Bounds.SouthWest) + " / " + formatLatLng(view.Bounds.NorthEast)})
			}
			return output.Write(a.out, f, output.Table{Headers: []string{"FIELD", "VALUE"}, Rows: rows, Data: view})
		},
	}
}

// clickLine：一行点击输入，At 为相对首次点击的时间偏移
type clickLine struct {
	Pos   model.LatLng
	At    time.Duration
	HasAt bool
}

// 文档注释：解析 "lat lng [offset_ms]"
// 约束：逗号与空白都可作分隔；纬度 [-90,90]、经度 [-180,180]；空行与 # 开头的行返回 ok=false。
func parseClickLine(s string) (clickLine, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return clickLine{}, false, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 2 && len(fields) != 3 {
		return clickLine{}, false, fmt.Errorf("expected \"lat lng [offset_ms]\", got %q", s)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || lat < -90 || lat > 90 {
		return clickLine{}, false, fmt.Errorf("invalid latitude %q", fields[0])
	}
	lng, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || lng < -180 || lng > 180 {
		return clickLine{}, false, fmt.Errorf("invalid longitude %q", fields[1])
	}
	cl := clickLine{Pos: model.LatLng{lat, lng}}
	if len(fields) == 3 {
		ms, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil || ms < 0 {
			return clickLine{}, false, fmt.Errorf("invalid offset %q", fields[2])
		}
		cl.At = time.Duration(ms) * time.Millisecond
		cl.HasAt = true
	}
	return cl, true, nil
}

// clickView：单次点击输出
type clickView struct {
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Outcome string   `json:"outcome"`
	RNBID   string   `json:"rnbId,omitempty"`
	RNBIDs  []string `json:"rnbIds"`
}

// pickView：整次会话输出
type pickView struct {
	ID     string      `json:"id"`
	Clicks []clickView `json:"clicks"`
	RNBIDs []string    `json:"rnbIds"`
	Saved  bool        `json:"saved"`
}

func newPickCmd(a *app) *cobra.Command {
	var (
		save     bool
		interval time.Duration
		radius   int
	)
	cmd := &cobra.Command{
		Use:   "pick <id>",
		Short: "Toggle registry IDs on an item by clicking map positions read from stdin",
		Long: `Reads one click per line as "lat lng [offset_ms]". Each click looks up the
closest registry building and toggles its ID on the item. Without an offset,
clicks are spaced by --interval; clicks closer than the debounce window to the
last accepted click are dropped.`,
		Example: `  printf '48.8566 2.3522\n48.8570 2.3530\n' | rnb-console pick 75056 --save`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := a.outputFormat()
			if err != nil {
				return err
			}
			items, err := a.catalog.FetchItems(ctx)
			if err != nil {
				return err
			}
			st := filter.NewState(filter.Options{})
			st.SetItems(items)
			if !st.Select(args[0]) {
				return fmt.Errorf("item %s not found", args[0])
			}
			it, _ := st.Selected()

			start := time.Now()
			now := start
			sess := mapview.NewSession(a.lookup, mapview.Options{
				Radius: radius,
				Clock:  func() time.Time { return now },
				Logger: logger.L(),
			})
			defer sess.Close()
			sess.SetActive(it)

			view := pickView{ID: it.ID, Clicks: []clickView{}, RNBIDs: it.RNBIDs}
			changed := false
			sc := bufio.NewScanner(a.in)
			first := true
			for sc.Scan() {
				cl, ok, err := parseClickLine(sc.Text())
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				switch {
				case cl.HasAt:
					now = start.Add(cl.At)
				case !first:
					now = now.Add(interval)
				}
				first = false
				res, err := sess.Click(ctx, cl.Pos)
				if err != nil {
					return err
				}
				if res.Changed() {
					changed = true
					view.RNBIDs = res.RNBIDs
				}
				view.Clicks = append(view.Clicks, clickView{Lat: cl.Pos.Lat(), Lng: cl.Pos.Lng(), Outcome: string(res.Outcome), RNBID: res.RNBID, RNBIDs: res.RNBIDs})
			}
			if err := sc.Err(); err != nil {
				return err
			}

			if save && changed {
				p := model.Patch{RNBIDs: view.RNBIDs, HasRNBIDs: true}
				if _, err := a.catalog.UpdateItem(ctx, it.ID, p); err != nil {
					return err
				}
				view.Saved = true
			}

			rows := make([][]string, 0, len(view.Clicks))
			for _, c := range view.Clicks {
				rows = append(rows, []string{formatLatLng(model.LatLng{c.Lat, c.Lng}), c.Outcome, c.RNBID, strings.Join(c.RNBIDs, ", ")})
			}
			return output.Write(a.out, f, output.Table{Headers: []string{"POSITION", "OUTCOME", "RNB ID", "RNB IDS"}, Rows: rows, Data: view})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Persist the toggled registry IDs")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Spacing between clicks without an explicit offset")
	cmd.Flags().IntVar(&radius, "radius", mapview.DefaultRadius, "Closest-building search radius in meters")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var name, address, surface, usage, gestionnaire string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit descriptive fields of an item",
		Example: `  rnb-console edit 75056 --name "Mairie" --usage "Bureaux"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p model.Patch
			set := func(flag string, v string, dst **string) {
				if cmd.Flags().Changed(flag) {
					*dst = model.Str(v)
				}
			}
			set("name", name, &p.Name)
			set("address", address, &p.Address)
			set("surface", surface, &p.Surface)
			set("usage", usage, &p.Usage)
			set("gestionnaire", gestionnaire, &p.Gestionnaire)
			if p.Name == nil && p.Address == nil && p.Surface == nil && p.Usage == nil && p.Gestionnaire == nil {
				return errors.New("nothing to update: set at least one field flag")
			}
			f, err := a.outputFormat()
			if err != nil {
				return err
			}
			saved, err := a.catalog.UpdateItem(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			rows := [][]string{}
			for _, kv := range []struct {
				k string
				v *string
			}{{"name", saved.Name}, {"address", saved.Address}, {"surface", saved.Surface}, {"usage", saved.Usage}, {"gestionnaire", saved.Gestionnaire}} {
				if kv.v != nil {
					rows = append(rows, []string{kv.k, *kv.v})
				}
			}
			return output.Write(a.out, f, output.Table{Headers: []string{"FIELD", "VALUE"}, Rows: rows, Data: saved})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Item name")
	cmd.Flags().StringVar(&address, "address", "", "Postal address")
	cmd.Flags().StringVar(&surface, "surface", "", "Floor surface")
	cmd.Flags().StringVar(&usage, "usage", "", "Usage")
	cmd.Flags().StringVar(&gestionnaire, "gestionnaire", "", "Managing entity")
	return cmd
}

func formatLatLng(p model.LatLng) string {
	return strconv.FormatFloat(p.Lat(), 'f', -1, 64) + ", " + strconv.FormatFloat(p.Lng(), 'f', -1, 64)
}
