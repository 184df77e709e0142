package planner

import (
	"errors"
	"testing"
	"time"
)

func TestTimeBlockStartBeforeEnd(t *testing.T) {
	store := newTestStore(t)
	svc := &TimeBlockService{store: store}

	at := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	if _, err := svc.Create("u1", TimeBlockParams{Title: "Backwards", Start: at, End: at.Add(-time.Hour)}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("inverted range: expected ErrInvalidRange, got %v", err)
	}
	if _, err := svc.Create("u1", TimeBlockParams{Title: "Empty", Start: at, End: at}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("zero-length range: expected ErrInvalidRange, got %v", err)
	}
	if _, err := svc.Create("u1", TimeBlockParams{Title: "Missing end", Start: at}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing end: expected ErrValidation, got %v", err)
	}

	block, err := svc.Create("u1", TimeBlockParams{Title: "Valid", Start: at, End: at.Add(time.Hour)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// An update that inverts the stored pair is rejected too.
	badEnd := at.Add(-time.Minute)
	if _, err := svc.Update("u1", block.ID, TimeBlockUpdate{End: &badEnd}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("update inverting range: expected ErrInvalidRange, got %v", err)
	}
}

func TestTimeBlockByRangeOverlap(t *testing.T) {
	store := newTestStore(t)
	svc := &TimeBlockService{store: store}

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mk := func(title string, startHour, endHour int) {
		t.Helper()
		_, err := svc.Create("u1", TimeBlockParams{
			Title: title,
			Start: day.Add(time.Duration(startHour) * time.Hour),
			End:   day.Add(time.Duration(endHour) * time.Hour),
		})
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	mk("before", 6, 8)
	mk("straddles start", 9, 11)
	mk("inside", 12, 13)
	mk("straddles end", 17, 19)
	mk("after", 20, 22)

	blocks, err := svc.ByRange("u1", day.Add(10*time.Hour), day.Add(18*time.Hour))
	if err != nil {
		t.Fatalf("byrange: %v", err)
	}

	got := make([]string, len(blocks))
	for i, b := range blocks {
		got[i] = b.Title
	}
	want := []string{"straddles start", "inside", "straddles end"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("blocks[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTimeBlockForTask(t *testing.T) {
	store := newTestStore(t)
	blocks := &TimeBlockService{store: store}
	tasks := &TaskService{store: store}

	task, err := tasks.Create("u1", TaskParams{Title: "Write report"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	at := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	if _, err := blocks.Create("u1", TimeBlockParams{Title: "Report time", Start: at, End: at.Add(2 * time.Hour), TaskID: &task.ID}); err != nil {
		t.Fatalf("create block: %v", err)
	}
	if _, err := blocks.Create("u1", TimeBlockParams{Title: "Unrelated", Start: at.Add(3 * time.Hour), End: at.Add(4 * time.Hour)}); err != nil {
		t.Fatalf("create block: %v", err)
	}

	linked, err := blocks.ForTask("u1", task.ID)
	if err != nil {
		t.Fatalf("fortask: %v", err)
	}
	if len(linked) != 1 || linked[0].Title != "Report time" {
		t.Errorf("unexpected linked blocks: %+v", linked)
	}
}

func TestTimeBlockStoredUTC(t *testing.T) {
	store := newTestStore(t)
	svc := &TimeBlockService{store: store}

	loc := time.FixedZone("PDT", -7*3600)
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, loc)
	block, err := svc.Create("u1", TimeBlockParams{Title: "Morning", Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByID("u1", block.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Start.Location() != time.UTC {
		t.Errorf("start not UTC: %v", got.Start)
	}
	if !got.Start.Equal(start) {
		t.Errorf("start instant changed: %v != %v", got.Start, start)
	}
}
