package cursor_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/leftmike/listscan/cursor"
	"github.com/leftmike/listscan/encode"
	"github.com/leftmike/listscan/listfile"
	"github.com/leftmike/listscan/page"
	"github.com/leftmike/listscan/sql"
	"github.com/leftmike/listscan/testutil"
)

func init() {
	testutil.SetupLogger(filepath.Join("testdata", "cursor_test.log"))
}

func writeList(t *testing.T, pages *testutil.Pages, rows [][]sql.Value) *listfile.ListID {
	t.Helper()

	lid, err := testutil.WriteList(context.Background(), pages, 1, testutil.Domains, rows)
	if err != nil {
		t.Fatalf("WriteList() failed with %s", err)
	}
	return lid
}

func openCursor(t *testing.T, pc cursor.PageClient, lid *listfile.ListID,
	opts *cursor.Options) *cursor.Cursor {

	t.Helper()

	c, err := cursor.Open(pc, lid, opts)
	if err != nil {
		t.Fatalf("Open(%s) failed with %s", lid, err)
	}
	return c
}

func chainPages(pages *testutil.Pages, lid *listfile.ListID) int {
	var cnt int
	for vpid := lid.FirstVPID; !vpid.IsNull(); vpid = page.NextVPID(pages.Page(lid.FileID, vpid)) {
		cnt += 1
	}
	return cnt
}

type moveFunc func(c *cursor.Cursor, ctx context.Context) error

func scan(t *testing.T, c *cursor.Cursor, start, move moveFunc) [][]sql.Value {
	t.Helper()

	ctx := context.Background()
	var rows [][]sql.Value
	err := start(c, ctx)
	for err == nil {
		row, rerr := c.Row()
		if rerr != nil {
			t.Fatalf("Row() at tuple %d failed with %s", c.TupleNo(), rerr)
		}
		rows = append(rows, row)
		err = move(c, ctx)
		if err != nil && err != io.EOF {
			t.Fatalf("move at tuple %d failed with %s", c.TupleNo(), err)
		}
	}
	if err != io.EOF {
		t.Fatalf("start failed with %s", err)
	}
	return rows
}

func scanForward(t *testing.T, c *cursor.Cursor) [][]sql.Value {
	t.Helper()
	return scan(t, c, (*cursor.Cursor).Next, (*cursor.Cursor).Next)
}

func scanBackward(t *testing.T, c *cursor.Cursor) [][]sql.Value {
	t.Helper()
	return scan(t, c, (*cursor.Cursor).Last, (*cursor.Cursor).Prev)
}

func reverse(rows [][]sql.Value) [][]sql.Value {
	rev := make([][]sql.Value, 0, len(rows))
	for idx := len(rows) - 1; idx >= 0; idx-- {
		rev = append(rev, rows[idx])
	}
	return rev
}

func TestScan(t *testing.T) {
	cases := []struct {
		n, big     int
		areaPages  int
		prefetch   bool
		noLastPage bool
	}{
		{n: 1},
		{n: 7, areaPages: 1},
		{n: 300},
		{n: 300, prefetch: true},
		{n: 300, prefetch: true, noLastPage: true, areaPages: 2},
		{n: 50, big: 5},
		{n: 50, big: 5, prefetch: true},
		{n: 50, big: 7, prefetch: true, noLastPage: true, areaPages: 8},
		{n: 50, big: 3, areaPages: 1, noLastPage: true},
		{n: 5, big: 5},
		{n: 4, big: 1, prefetch: true},
	}

	ctx := context.Background()
	for _, c := range cases {
		name := fmt.Sprintf("n=%d big=%d area=%d prefetch=%v nolast=%v", c.n, c.big,
			c.areaPages, c.prefetch, c.noLastPage)

		pages := testutil.NewPages()
		pages.Prefetch = c.prefetch
		rows := testutil.MakeRows(c.n, c.big)
		lid := writeList(t, pages, rows)
		if c.noLastPage {
			lid.LastPage = nil
		}

		cr := openCursor(t, pages, lid, &cursor.Options{AreaPages: c.areaPages})
		if cr.Position() != cursor.BeforeFirst || cr.TupleNo() != -1 {
			t.Errorf("%s: Open() got %s at %d", name, cr.Position(), cr.TupleNo())
		}

		got := scanForward(t, cr)
		if eq, d := testutil.EqualRows(got, rows); !eq {
			t.Errorf("%s: forward scan:\n%s", name, d)
		}
		if cr.Position() != cursor.AfterLast || cr.TupleNo() != c.n {
			t.Errorf("%s: after forward scan got %s at %d", name, cr.Position(), cr.TupleNo())
		}
		if err := cr.Next(ctx); err != io.EOF {
			t.Errorf("%s: Next() after last got %v want io.EOF", name, err)
		}

		got = scanBackward(t, cr)
		if eq, d := testutil.EqualRows(got, reverse(rows)); !eq {
			t.Errorf("%s: backward scan:\n%s", name, d)
		}
		if cr.Position() != cursor.BeforeFirst || cr.TupleNo() != -1 {
			t.Errorf("%s: after backward scan got %s at %d", name, cr.Position(), cr.TupleNo())
		}
		if err := cr.Prev(ctx); err != io.EOF {
			t.Errorf("%s: Prev() before first got %v want io.EOF", name, err)
		}

		err := cr.Prev(ctx)
		if err != io.EOF {
			t.Errorf("%s: Prev() got %v want io.EOF", name, err)
		}
		got = scan(t, cr, (*cursor.Cursor).Next, (*cursor.Cursor).Next)
		if len(got) != c.n {
			t.Errorf("%s: second forward scan got %d rows want %d", name, len(got), c.n)
		}

		got = scan(t, cr, (*cursor.Cursor).Prev, (*cursor.Cursor).Prev)
		if eq, d := testutil.EqualRows(got, reverse(rows)); !eq {
			t.Errorf("%s: Prev() from after last:\n%s", name, d)
		}
		cr.Close()
	}
}

func TestTupleNo(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	rows := testutil.MakeRows(200, 9)
	lid := writeList(t, pages, rows)
	c := openCursor(t, pages, lid, nil)
	defer c.Close()

	for tdx := 0; tdx < len(rows); tdx++ {
		err := c.Next(ctx)
		if err != nil {
			t.Fatalf("Next() failed with %s", err)
		}
		if c.TupleNo() != tdx {
			t.Fatalf("TupleNo() got %d want %d", c.TupleNo(), tdx)
		}
		v, err := c.GetValue(0)
		if err != nil {
			t.Fatalf("GetValue(0) failed with %s", err)
		}
		if iv, _ := v.Get(); iv != sql.Int64Value(tdx) {
			t.Fatalf("GetValue(0) at %d got %v", tdx, iv)
		}
	}

	err := c.Last(ctx)
	if err != nil {
		t.Fatalf("Last() failed with %s", err)
	}
	if c.TupleNo() != len(rows)-1 {
		t.Errorf("Last(): TupleNo() got %d want %d", c.TupleNo(), len(rows)-1)
	}
	for tdx := len(rows) - 2; tdx >= 0; tdx-- {
		err := c.Prev(ctx)
		if err != nil {
			t.Fatalf("Prev() failed with %s", err)
		}
		if c.TupleNo() != tdx {
			t.Fatalf("TupleNo() got %d want %d", c.TupleNo(), tdx)
		}
	}

	err = c.First(ctx)
	if err != nil || c.TupleNo() != 0 || c.Position() != cursor.OnTuple {
		t.Errorf("First() got %v at %d (%s)", err, c.TupleNo(), c.Position())
	}
	if c.PageTupleCount() == 0 {
		t.Error("PageTupleCount() got 0 on the first page")
	}
}

func TestValuesMatchTuple(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	rows := testutil.MakeRows(60, 6)
	lid := writeList(t, pages, rows)
	c := openCursor(t, pages, lid, &cursor.Options{AreaPages: 2})
	defer c.Close()

	for tdx := 0; c.Next(ctx) == nil; tdx++ {
		tuple, err := listfile.EncodeTuple(testutil.Domains, rows[tdx])
		if err != nil {
			t.Fatalf("EncodeTuple() failed with %s", err)
		}
		want, err := listfile.DecodeTuple(testutil.Domains, tuple)
		if err != nil {
			t.Fatalf("DecodeTuple() failed with %s", err)
		}

		vals, err := c.GetValueList(c.ColumnCount())
		if err != nil {
			t.Fatalf("GetValueList() failed with %s", err)
		}
		got := make([]sql.Value, 0, len(vals))
		for vdx, v := range vals {
			if v.Domain() != testutil.Domains[vdx] {
				t.Errorf("tuple %d: value %d: Domain() got %s want %s", tdx, vdx, v.Domain(),
					testutil.Domains[vdx])
			}
			if v.IsNull() != (want[vdx] == nil) {
				t.Errorf("tuple %d: value %d: IsNull() got %v", tdx, vdx, v.IsNull())
			}
			val, err := v.Get()
			if err != nil {
				t.Fatalf("Get() failed with %s", err)
			}
			got = append(got, val)
		}
		if !testutil.EqualRow(got, want) {
			t.Errorf("tuple %d: got %v want %v", tdx, got, want)
		}
	}
}

func TestRandomAccess(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	rows := testutil.MakeRows(10, 4)
	lid := writeList(t, pages, rows)
	c := openCursor(t, pages, lid, nil)
	defer c.Close()

	order := []int{3, 1, 6, 6, 0, 5, 2, 4, 1}
	for tdx := 0; c.Next(ctx) == nil; tdx++ {
		for _, idx := range order {
			v, err := c.GetValue(idx)
			if err != nil {
				t.Fatalf("GetValue(%d) failed with %s", idx, err)
			}
			val, _ := v.Get()
			if sql.Compare(val, rows[tdx][idx]) != 0 {
				t.Errorf("tuple %d: GetValue(%d) got %s want %s", tdx, idx, sql.Format(val),
					sql.Format(rows[tdx][idx]))
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	rows := testutil.MakeRows(100, 8)
	lid := writeList(t, pages, rows)
	c := openCursor(t, pages, lid, nil)
	defer c.Close()

	err := c.Next(ctx)
	if err != nil {
		t.Fatalf("Next() failed with %s", err)
	}
	for k := 1; k < len(rows); k++ {
		err := c.Next(ctx)
		if err != nil {
			t.Fatalf("Next() to %d failed with %s", k, err)
		}
		before, err := c.Row()
		if err != nil {
			t.Fatalf("Row() failed with %s", err)
		}

		err = c.Prev(ctx)
		if err != nil || c.TupleNo() != k-1 {
			t.Fatalf("Prev() from %d got %v at %d", k, err, c.TupleNo())
		}
		err = c.Next(ctx)
		if err != nil || c.TupleNo() != k {
			t.Fatalf("Next() to %d got %v at %d", k, err, c.TupleNo())
		}
		after, err := c.Row()
		if err != nil {
			t.Fatalf("Row() failed with %s", err)
		}
		if !testutil.EqualRow(before, after) || !testutil.EqualRow(after, rows[k]) {
			t.Errorf("tuple %d: got %v then %v want %v", k, before, after, rows[k])
		}
	}
}

func TestOverflowTransparent(t *testing.T) {
	ctx := context.Background()
	types := []sql.Domain{sql.Int64Domain, sql.BytesDomain, sql.StringDomain}

	big := make([]byte, page.Size*3+123)
	for idx := range big {
		big[idx] = byte(idx * 7)
	}
	rows := [][]sql.Value{
		{sql.Int64Value(1), sql.BytesValue("a"), sql.StringValue("first")},
		{sql.Int64Value(2), sql.BytesValue(big), sql.StringValue("overflow")},
		{sql.Int64Value(3), nil, sql.StringValue("last")},
	}

	for _, prefetch := range []bool{false, true} {
		pages := testutil.NewPages()
		pages.Prefetch = prefetch
		lid, err := testutil.WriteList(ctx, pages, 1, types, rows)
		if err != nil {
			t.Fatalf("WriteList() failed with %s", err)
		}

		tuple, err := listfile.EncodeTuple(types, rows[1])
		if err != nil {
			t.Fatalf("EncodeTuple() failed with %s", err)
		}
		if len(tuple) <= page.MaxTupleSizeInPage {
			t.Fatalf("tuple of %d bytes does not overflow", len(tuple))
		}
		want, err := listfile.DecodeTuple(types, tuple)
		if err != nil {
			t.Fatalf("DecodeTuple() failed with %s", err)
		}

		c := openCursor(t, pages, lid, &cursor.Options{AreaPages: 5})
		for _, move := range []moveFunc{(*cursor.Cursor).First, (*cursor.Cursor).Next} {
			err = move(c, ctx)
			if err != nil {
				t.Fatalf("move failed with %s", err)
			}
		}
		got, err := c.Row()
		if err != nil {
			t.Fatalf("Row() failed with %s", err)
		}
		if !testutil.EqualRow(got, want) {
			t.Errorf("prefetch=%v: overflow tuple differs", prefetch)
		}
		if c.Stats().Reconstructed != 1 {
			t.Errorf("prefetch=%v: Reconstructed got %d want 1", prefetch,
				c.Stats().Reconstructed)
		}

		err = c.Next(ctx)
		if err != nil {
			t.Fatalf("Next() failed with %s", err)
		}
		got, _ = c.Row()
		if !testutil.EqualRow(got, rows[2]) {
			t.Errorf("prefetch=%v: tuple after overflow got %v", prefetch, got)
		}

		err = c.Prev(ctx)
		if err != nil {
			t.Fatalf("Prev() failed with %s", err)
		}
		got, _ = c.Row()
		if !testutil.EqualRow(got, want) {
			t.Errorf("prefetch=%v: overflow tuple differs after Prev()", prefetch)
		}
		err = c.Prev(ctx)
		if err != nil {
			t.Fatalf("Prev() failed with %s", err)
		}
		got, _ = c.Row()
		if !testutil.EqualRow(got, rows[0]) {
			t.Errorf("prefetch=%v: first tuple got %v", prefetch, got)
		}
		c.Close()
	}
}

func TestEmpty(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	lid := writeList(t, pages, nil)
	c := openCursor(t, pages, lid, nil)
	defer c.Close()

	moves := []struct {
		name string
		fn   moveFunc
	}{
		{"Next", (*cursor.Cursor).Next},
		{"Prev", (*cursor.Cursor).Prev},
		{"First", (*cursor.Cursor).First},
		{"Last", (*cursor.Cursor).Last},
		{"Next", (*cursor.Cursor).Next},
	}
	for _, m := range moves {
		err := m.fn(c, ctx)
		if err != io.EOF {
			t.Errorf("%s() got %v want io.EOF", m.name, err)
		}
		if c.Position() == cursor.OnTuple {
			t.Errorf("%s() moved onto a tuple", m.name)
		}
	}
	if c.Stats().Fetches != 0 {
		t.Errorf("Fetches got %d want 0", c.Stats().Fetches)
	}
	_, err := c.GetValue(0)
	if !errors.Is(err, cursor.ErrNotOnTuple) {
		t.Errorf("GetValue(0) got %v want %s", err, cursor.ErrNotOnTuple)
	}
}

func TestEmptyHeadPage(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	fileID := uuid.New()
	vpid := page.VPID{PageID: 0}
	pg := make(page.Page, page.Size)
	page.Init(pg)
	err := pages.WritePage(ctx, fileID, vpid, pg)
	if err != nil {
		t.Fatal(err)
	}

	lid := &listfile.ListID{
		FileID:    fileID,
		QueryID:   3,
		TypeList:  []sql.Domain{sql.Int64Domain},
		FirstVPID: vpid,
		LastVPID:  vpid,
	}
	c := openCursor(t, pages, lid, nil)
	defer c.Close()

	err = c.First(ctx)
	if err != io.EOF || c.Position() != cursor.AfterLast || c.TupleNo() != 0 {
		t.Errorf("First() got %v at %d (%s)", err, c.TupleNo(), c.Position())
	}
	err = c.Last(ctx)
	if err != io.EOF || c.Position() != cursor.BeforeFirst || c.TupleNo() != -1 {
		t.Errorf("Last() got %v at %d (%s)", err, c.TupleNo(), c.Position())
	}
	err = c.Next(ctx)
	if err != io.EOF || c.Position() != cursor.AfterLast {
		t.Errorf("Next() got %v (%s)", err, c.Position())
	}
}

func TestFirstLastFromAnyState(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	rows := testutil.MakeRows(120, 0)
	lid := writeList(t, pages, rows)
	c := openCursor(t, pages, lid, nil)
	defer c.Close()

	check := func(what string, want int) {
		t.Helper()
		if c.Position() != cursor.OnTuple || c.TupleNo() != want {
			t.Errorf("%s: got %s at %d want tuple %d", what, c.Position(), c.TupleNo(), want)
		}
		v, err := c.GetValue(0)
		if err != nil {
			t.Fatalf("%s: GetValue(0) failed with %s", what, err)
		}
		if iv, _ := v.Get(); iv != sql.Int64Value(want) {
			t.Errorf("%s: GetValue(0) got %v want %d", what, iv, want)
		}
	}

	if err := c.Last(ctx); err != nil {
		t.Fatal(err)
	}
	check("Last() from before first", 119)
	if err := c.First(ctx); err != nil {
		t.Fatal(err)
	}
	check("First() from last", 0)
	for idx := 0; idx < 50; idx++ {
		c.Next(ctx)
	}
	check("Next() 50 times", 50)
	if err := c.Last(ctx); err != nil {
		t.Fatal(err)
	}
	check("Last() from middle", 119)
	if err := c.Next(ctx); err != io.EOF {
		t.Fatalf("Next() after last got %v", err)
	}
	if err := c.First(ctx); err != nil {
		t.Fatal(err)
	}
	check("First() from after last", 0)
	if err := c.Prev(ctx); err != io.EOF {
		t.Fatalf("Prev() before first got %v", err)
	}
	if err := c.Last(ctx); err != nil {
		t.Fatal(err)
	}
	check("Last() from before first", 119)
}

func TestTailCache(t *testing.T) {
	pages := testutil.NewPages()
	rows := testutil.MakeRows(5, 0)
	lid := writeList(t, pages, rows)
	if lid.FirstVPID != lid.LastVPID {
		t.Fatalf("WriteList(5) wrote more than one page")
	}

	c := openCursor(t, pages, lid, nil)
	got := scanForward(t, c)
	if eq, d := testutil.EqualRows(got, rows); !eq {
		t.Errorf("scan with tail cache:\n%s", d)
	}
	st := c.Stats()
	if st.Fetches != 0 || st.TailHits != 1 {
		t.Errorf("Stats() got %+v want 0 fetches and 1 tail hit", st)
	}
	c.Close()
	if pages.FetchCount() != 0 {
		t.Error("page client called with a cached last page")
	}

	lid.LastPage = nil
	c = openCursor(t, pages, lid, nil)
	scanForward(t, c)
	st = c.Stats()
	if st.Fetches != 1 || st.TailHits != 0 {
		t.Errorf("Stats() got %+v want 1 fetch and 0 tail hits", st)
	}
	c.Close()
}

func TestAreaHits(t *testing.T) {
	pages := testutil.NewPages()
	rows := testutil.MakeRows(400, 0)
	lid := writeList(t, pages, rows)
	numPages := chainPages(pages, lid)
	if numPages < 8 {
		t.Fatalf("WriteList(400) wrote %d pages", numPages)
	}

	cases := []struct {
		prefetch  bool
		lastPage  bool
		areaPages int
		fetches   int
		tailHits  int
	}{
		{fetches: numPages},
		{lastPage: true, fetches: numPages - 1, tailHits: 1},
		{prefetch: true, areaPages: 4, fetches: (numPages + 3) / 4},
		{prefetch: true, lastPage: true, areaPages: 4, fetches: (numPages + 2) / 4, tailHits: 1},
		{prefetch: true, areaPages: 1, fetches: numPages},
	}

	for _, tc := range cases {
		pages.Prefetch = tc.prefetch
		l := lid.Clone()
		if !tc.lastPage {
			l.LastPage = nil
		}

		c := openCursor(t, pages, l, &cursor.Options{AreaPages: tc.areaPages})
		got := scanForward(t, c)
		if len(got) != len(rows) {
			t.Errorf("%+v: got %d rows want %d", tc, len(got), len(rows))
		}
		st := c.Stats()
		if st.Fetches != tc.fetches || st.TailHits != tc.tailHits {
			t.Errorf("%+v: Stats() got %+v", tc, st)
		}
		if tc.prefetch && tc.areaPages > 1 && st.AreaHits == 0 {
			t.Errorf("%+v: Stats() got no area hits", tc)
		}
		if pages.FetchCount() != st.Fetches {
			t.Errorf("%+v: page client fetches do not match Stats()", tc)
		}

		before := st.Fetches
		for idx := 0; idx < 3; idx++ {
			c.Prev(context.Background())
			c.Next(context.Background())
			c.GetValueList(c.ColumnCount())
		}
		if tc.areaPages != 1 && c.Stats().Fetches != before {
			t.Errorf("%+v: moving within the area fetched pages", tc)
		}
		pages.FetchCount()
		c.Close()
	}
}

func TestOverflowFetches(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	pages.Prefetch = true
	types := []sql.Domain{sql.BytesDomain}
	rows := [][]sql.Value{
		{sql.BytesValue(make([]byte, page.Size*2))},
		{sql.BytesValue("small")},
	}
	lid, err := testutil.WriteList(ctx, pages, 1, types, rows)
	if err != nil {
		t.Fatalf("WriteList() failed with %s", err)
	}
	lid.LastPage = nil

	c := openCursor(t, pages, lid, &cursor.Options{AreaPages: 4})
	defer c.Close()
	err = c.Next(ctx)
	if err != nil {
		t.Fatalf("Next() failed with %s", err)
	}
	if st := c.Stats(); st.Fetches != 1 || st.Reconstructed != 1 {
		t.Errorf("Stats() got %+v want 1 fetch and 1 reconstructed", st)
	}
	v, err := c.GetValue(0)
	if err != nil {
		t.Fatalf("GetValue(0) failed with %s", err)
	}
	if b, _ := v.Get(); len(b.(sql.BytesValue)) != page.Size*2 {
		t.Errorf("GetValue(0) got %d bytes want %d", len(b.(sql.BytesValue)), page.Size*2)
	}
}

func TestFetchFailure(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	rows := testutil.MakeRows(300, 0)
	lid := writeList(t, pages, rows)
	lid.LastPage = nil

	first := pages.Page(lid.FileID, lid.FirstVPID)
	second := page.NextVPID(first)
	pages.Fail = func(vpid page.VPID) error {
		if vpid == second {
			return testutil.ErrInjected
		}
		return nil
	}

	c := openCursor(t, pages, lid, nil)
	defer c.Close()

	var err error
	for err == nil {
		err = c.Next(ctx)
	}
	if !errors.Is(err, testutil.ErrInjected) {
		t.Fatalf("Next() got %v want %s", err, testutil.ErrInjected)
	}
	if c.TupleNo() >= len(rows) {
		t.Errorf("Next() failed at tuple %d", c.TupleNo())
	}
	_, err = c.GetValue(0)
	if err == nil {
		t.Error("GetValue(0) after failed fetch did not fail")
	}
	if err := c.Next(ctx); !errors.Is(err, cursor.ErrNoPage) {
		t.Errorf("Next() after failed fetch got %v want %s", err, cursor.ErrNoPage)
	}
	if err := c.Prev(ctx); !errors.Is(err, cursor.ErrNoPage) {
		t.Errorf("Prev() after failed fetch got %v want %s", err, cursor.ErrNoPage)
	}

	pages.Fail = nil
	got := scan(t, c, (*cursor.Cursor).First, (*cursor.Cursor).Next)
	if eq, d := testutil.EqualRows(got, rows); !eq {
		t.Errorf("scan after failed fetch:\n%s", d)
	}
}

type shortClient struct {
	pc cursor.PageClient
	n  int
}

func (sc shortClient) FetchPage(ctx context.Context, fileID uuid.UUID, vpid page.VPID,
	dst []byte) (int, error) {

	_, err := sc.pc.FetchPage(ctx, fileID, vpid, dst)
	return sc.n, err
}

func TestBadFetchSize(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	lid := writeList(t, pages, testutil.MakeRows(3, 0))
	lid.LastPage = nil

	for _, n := range []int{0, 100, page.Size + 1, page.Size * 5} {
		c := openCursor(t, shortClient{pages, n}, lid, &cursor.Options{AreaPages: 4})
		err := c.First(ctx)
		if err == nil || err == io.EOF {
			t.Errorf("First() with %d bytes fetched got %v", n, err)
		}
		c.Close()
	}
}

type failCodec struct {
	typ sql.DataType
}

var errDecode = errors.New("decode failed")

func (fc failCodec) DecodeValue(dom sql.Domain, buf []byte, copy bool) (sql.Value, error) {
	if dom.Type == fc.typ {
		return nil, errDecode
	}
	return encode.DecodeValue(dom, buf, copy)
}

func TestDecodeFailure(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	rows := testutil.MakeRows(20, 0)
	lid := writeList(t, pages, rows)

	c := openCursor(t, pages, lid, &cursor.Options{Codec: failCodec{sql.StringType}})
	defer c.Close()

	for tdx := 0; tdx < len(rows); tdx++ {
		err := c.Next(ctx)
		if err != nil {
			t.Fatalf("Next() failed with %s", err)
		}
		_, err = c.GetValue(1)
		if !errors.Is(err, errDecode) {
			t.Errorf("GetValue(1) got %v want %s", err, errDecode)
		}
		_, err = c.GetValueList(3)
		if !errors.Is(err, errDecode) {
			t.Errorf("GetValueList(3) got %v want %s", err, errDecode)
		}
		if c.TupleNo() != tdx || c.Position() != cursor.OnTuple {
			t.Errorf("decode failure moved cursor to %d (%s)", c.TupleNo(), c.Position())
		}
		v, err := c.GetValue(2)
		if err != nil {
			t.Fatalf("GetValue(2) failed with %s", err)
		}
		if bv, _ := v.Get(); bv != rows[tdx][2] {
			t.Errorf("GetValue(2) got %v want %v", bv, rows[tdx][2])
		}
	}
}

func TestCopyMode(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	rows := testutil.MakeRows(10, 0)
	lid := writeList(t, pages, rows)
	c := openCursor(t, pages, lid, nil)

	if !c.CopyMode() {
		t.Error("CopyMode() got false for a new cursor")
	}
	if prev := c.SetCopyMode(false); prev != true {
		t.Errorf("SetCopyMode(false) got %v want true", prev)
	}
	if prev := c.SetCopyMode(false); prev != false {
		t.Errorf("SetCopyMode(false) got %v want false", prev)
	}
	if prev := c.SetCopyMode(true); prev != false {
		t.Errorf("SetCopyMode(true) got %v want false", prev)
	}
	if prev := c.SetCopyMode(true); prev != true {
		t.Errorf("SetCopyMode(true) got %v want true", prev)
	}

	err := c.Next(ctx)
	if err != nil {
		t.Fatalf("Next() failed with %s", err)
	}
	owned, err := c.GetValue(6)
	if err != nil {
		t.Fatalf("GetValue(6) failed with %s", err)
	}
	if owned.IsBorrowed() {
		t.Error("GetValue(6) in copy mode returned a borrowed value")
	}

	c.SetCopyMode(false)
	peeked, err := c.GetValue(6)
	if err != nil {
		t.Fatalf("GetValue(6) failed with %s", err)
	}
	if !peeked.IsBorrowed() {
		t.Error("GetValue(6) in peek mode returned an owned value")
	}
	pv, err := peeked.Get()
	if err != nil || sql.Compare(pv, rows[0][6]) != 0 {
		t.Errorf("Get() of peeked value got %v, %v want %v", pv, err, rows[0][6])
	}

	err = c.Next(ctx)
	if err != nil {
		t.Fatalf("Next() failed with %s", err)
	}
	_, err = peeked.Get()
	if err != cursor.ErrValueInvalidated {
		t.Errorf("Get() of peeked value after Next() got %v want %s", err,
			cursor.ErrValueInvalidated)
	}
	if peeked.String() != "<invalidated>" {
		t.Errorf("String() of invalidated value got %s", peeked.String())
	}
	ov, err := owned.Get()
	if err != nil || sql.Compare(ov, rows[0][6]) != 0 {
		t.Errorf("Get() of owned value after Next() got %v, %v want %v", ov, err, rows[0][6])
	}

	peeked, _ = c.GetValue(6)
	c.Close()
	_, err = peeked.Get()
	if err != cursor.ErrValueInvalidated {
		t.Errorf("Get() of peeked value after Close() got %v want %s", err,
			cursor.ErrValueInvalidated)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	lid := writeList(t, pages, testutil.MakeRows(10, 0))
	c := openCursor(t, pages, lid, nil)

	err := c.Next(ctx)
	if err != nil {
		t.Fatalf("Next() failed with %s", err)
	}
	for idx := 0; idx < 3; idx++ {
		if err := c.Close(); err != nil {
			t.Errorf("Close() got %s", err)
		}
	}

	moves := []moveFunc{(*cursor.Cursor).Next, (*cursor.Cursor).Prev, (*cursor.Cursor).First,
		(*cursor.Cursor).Last}
	for _, m := range moves {
		if err := m(c, ctx); err != cursor.ErrClosed {
			t.Errorf("move after Close() got %v want %s", err, cursor.ErrClosed)
		}
	}
	if _, err := c.GetValue(0); err != cursor.ErrClosed {
		t.Errorf("GetValue(0) after Close() got %v want %s", err, cursor.ErrClosed)
	}
	if _, err := c.GetValueList(1); err != cursor.ErrClosed {
		t.Errorf("GetValueList(1) after Close() got %v want %s", err, cursor.ErrClosed)
	}
	if c.ColumnCount() != 0 || c.Domains() != nil {
		t.Error("ColumnCount() or Domains() after Close() not empty")
	}
}

func TestNilCursor(t *testing.T) {
	ctx := context.Background()
	var c *cursor.Cursor

	if err := c.Close(); err != nil {
		t.Errorf("Close() of nil cursor got %s want nil", err)
	}

	moves := []struct {
		name string
		move moveFunc
	}{
		{"Next", (*cursor.Cursor).Next},
		{"Prev", (*cursor.Cursor).Prev},
		{"First", (*cursor.Cursor).First},
		{"Last", (*cursor.Cursor).Last},
	}
	for _, m := range moves {
		if err := m.move(c, ctx); err != cursor.ErrNilCursor {
			t.Errorf("%s() of nil cursor got %v want %s", m.name, err, cursor.ErrNilCursor)
		}
	}

	if _, err := c.GetValue(0); err != cursor.ErrNilCursor {
		t.Errorf("GetValue(0) of nil cursor got %v want %s", err, cursor.ErrNilCursor)
	}
	if _, err := c.GetValueList(1); err != cursor.ErrNilCursor {
		t.Errorf("GetValueList(1) of nil cursor got %v want %s", err, cursor.ErrNilCursor)
	}
	if _, err := c.Row(); err != cursor.ErrNilCursor {
		t.Errorf("Row() of nil cursor got %v want %s", err, cursor.ErrNilCursor)
	}

	if c.Position() != cursor.BeforeFirst {
		t.Errorf("Position() of nil cursor got %s want %s", c.Position(), cursor.BeforeFirst)
	}
	if c.TupleNo() != -1 {
		t.Errorf("TupleNo() of nil cursor got %d want -1", c.TupleNo())
	}
	if c.ColumnCount() != 0 || c.Domains() != nil || c.PageTupleCount() != 0 {
		t.Error("nil cursor has columns or tuples")
	}
	if c.Stats() != (cursor.Stats{}) {
		t.Errorf("Stats() of nil cursor got %+v", c.Stats())
	}
	if !c.CopyMode() || !c.SetCopyMode(false) {
		t.Error("nil cursor is not in copy mode")
	}
}

func TestInvalidIndex(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	lid := writeList(t, pages, testutil.MakeRows(2, 0))
	c := openCursor(t, pages, lid, nil)
	defer c.Close()

	if _, err := c.GetValue(0); !errors.Is(err, cursor.ErrNotOnTuple) {
		t.Errorf("GetValue(0) before first got %v want %s", err, cursor.ErrNotOnTuple)
	}
	if err := c.Next(ctx); err != nil {
		t.Fatal(err)
	}
	for _, idx := range []int{-1, len(testutil.Domains), 100} {
		if _, err := c.GetValue(idx); !errors.Is(err, cursor.ErrInvalidIndex) {
			t.Errorf("GetValue(%d) got %v want %s", idx, err, cursor.ErrInvalidIndex)
		}
	}
	if _, err := c.GetValueList(len(testutil.Domains) + 1); !errors.Is(err,
		cursor.ErrInvalidIndex) {

		t.Errorf("GetValueList(too many) got %v want %s", err, cursor.ErrInvalidIndex)
	}
	vals, err := c.GetValueList(2)
	if err != nil || len(vals) != 2 {
		t.Errorf("GetValueList(2) got %d values, %v", len(vals), err)
	}
}

func TestNoQuery(t *testing.T) {
	ctx := context.Background()
	pages := testutil.NewPages()
	lid, err := testutil.WriteList(ctx, pages, 0, testutil.Domains, testutil.MakeRows(3, 0))
	if err != nil {
		t.Fatal(err)
	}
	c := openCursor(t, pages, lid, nil)
	defer c.Close()

	if err := c.Next(ctx); err != cursor.ErrNoQuery {
		t.Errorf("Next() got %v want %s", err, cursor.ErrNoQuery)
	}
}

func TestOpen(t *testing.T) {
	pages := testutil.NewPages()
	lid := writeList(t, pages, testutil.MakeRows(3, 0))

	if _, err := cursor.Open(nil, lid, nil); err == nil {
		t.Error("Open(nil page client) did not fail")
	}
	if _, err := cursor.Open(pages, nil, nil); err == nil {
		t.Error("Open(nil list id) did not fail")
	}
	if _, err := cursor.Open(pages, lid, &cursor.Options{AreaPages: -1}); err == nil {
		t.Error("Open(AreaPages: -1) did not fail")
	}
	bad := lid.Clone()
	bad.LastVPID = page.NullVPID
	if _, err := cursor.Open(pages, bad, nil); err == nil {
		t.Error("Open(bad list id) did not fail")
	}
	empty := lid.Clone()
	empty.FirstVPID = page.NullVPID
	empty.LastVPID = page.NullVPID
	empty.TupleCount = 0
	if _, err := cursor.Open(pages, empty, nil); err == nil {
		t.Error("Open(empty list id with a last page) did not fail")
	}

	lid.TypeList = append([]sql.Domain(nil), lid.TypeList...)
	c := openCursor(t, pages, lid, nil)
	defer c.Close()
	doms := c.Domains()
	doms[0] = sql.BoolDomain
	lid.TypeList[1] = sql.BoolDomain
	for idx := range lid.LastPage {
		lid.LastPage[idx] = 0xFF
	}
	if c.Domains()[0] != testutil.Domains[0] || c.Domains()[1] != testutil.Domains[1] {
		t.Error("cursor shares its list id with the caller")
	}
	if err := c.First(context.Background()); err != nil {
		t.Errorf("First() failed with %s", err)
	}
	if c.Stats().TailHits != 1 {
		t.Errorf("TailHits got %d want 1", c.Stats().TailHits)
	}
}

func TestConcurrentCursors(t *testing.T) {
	pages := testutil.NewPages()
	pages.Prefetch = true
	rows := testutil.MakeRows(200, 11)
	lid := writeList(t, pages, rows)

	var wg sync.WaitGroup
	for cdx := 0; cdx < 8; cdx++ {
		wg.Add(1)
		go func(cdx int) {
			defer wg.Done()

			c, err := cursor.Open(pages, lid, &cursor.Options{AreaPages: 1 + cdx%4})
			if err != nil {
				t.Errorf("Open() failed with %s", err)
				return
			}
			defer c.Close()

			ctx := context.Background()
			var cnt int
			for err = c.Next(ctx); err == nil; err = c.Next(ctx) {
				row, err := c.Row()
				if err != nil {
					t.Errorf("Row() failed with %s", err)
					return
				}
				if !testutil.EqualRow(row, rows[cnt]) {
					t.Errorf("cursor %d: tuple %d differs", cdx, cnt)
				}
				cnt += 1
			}
			if err != io.EOF || cnt != len(rows) {
				t.Errorf("cursor %d: got %d tuples and %v", cdx, cnt, err)
			}
		}(cdx)
	}
	wg.Wait()
}
