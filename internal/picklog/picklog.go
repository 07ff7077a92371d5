// Package picklog is the completion log writer (§4.8): a pure formatter
// that renders a finalized request to a fixed-layout plain-text file. It
// has no other side effect than writing that one file.
package picklog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pickcoordinator/internal/models"
)

const (
	separator     = "================================================================================"
	dashSeparator = "--------------------------------------------------------------------------------"
)

// Writer renders finalized requests into dir, creating it if absent.
type Writer struct {
	dir string
	now func() time.Time
}

// New builds a Writer rooted at dir (the configured log_directory).
func New(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write renders req and saves it as pick_<name>_<YYYY-MM-DD>_<HH-MM-SS>.log
// under dir, returning the file's path.
func (w *Writer) Write(req *models.Request) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("picklog: create directory: %w", err)
	}

	generatedAt := w.now()
	filename := fmt.Sprintf("pick_%s_%s.log", req.Name, generatedAt.Format("2006-01-02_15-04-05"))
	path := filepath.Join(w.dir, filename)

	content := format(req, generatedAt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("picklog: write file: %w", err)
	}
	return path, nil
}

func format(req *models.Request, generatedAt time.Time) string {
	var b strings.Builder

	writeHeader(&b, req)
	writeTimestamps(&b, req)
	writeItems(&b, req)
	writeSummary(&b, req)

	b.WriteString(separator)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Generated: %s\n", formatTime(&generatedAt))
	b.WriteString(separator)
	b.WriteString("\n")

	return b.String()
}

func writeHeader(b *strings.Builder, req *models.Request) {
	b.WriteString(separator + "\n")
	b.WriteString("PICK COMPLETION LOG\n")
	b.WriteString(separator + "\n\n")

	fmt.Fprintf(b, "Request Name:    %s\n", req.Name)
	fmt.Fprintf(b, "Status:          %s\n", strings.ToUpper(string(req.Status)))
	priority := strings.ToUpper(string(req.Priority))
	if priority == "" {
		priority = "NORMAL"
	}
	fmt.Fprintf(b, "Priority:        %s\n", priority)
	if req.Notes != "" {
		fmt.Fprintf(b, "Notes:           %s\n", req.Notes)
	}
	b.WriteString("\n")
}

func writeTimestamps(b *strings.Builder, req *models.Request) {
	fmt.Fprintf(b, "Created At:      %s\n", formatTime(&req.CreatedAt))
	creator := "unknown"
	if req.Creator != nil {
		creator = req.Creator.Username
	}
	fmt.Fprintf(b, "Created By:      %s\n\n", creator)

	if req.StartedAt != nil {
		fmt.Fprintf(b, "Started At:      %s\n", formatTime(req.StartedAt))
	}
	if req.CompletedAt != nil {
		fmt.Fprintf(b, "Completed At:    %s\n", formatTime(req.CompletedAt))
		if req.StartedAt != nil {
			fmt.Fprintf(b, "Duration:        %s\n", formatDuration(req.CompletedAt.Sub(*req.StartedAt)))
		}
	}

	picker := "unknown"
	if req.Claimant != nil {
		picker = req.Claimant.Username
	}
	fmt.Fprintf(b, "Picked By:       %s\n\n", picker)
}

func writeItems(b *strings.Builder, req *models.Request) {
	b.WriteString(separator + "\n")
	b.WriteString("ITEMS\n")
	b.WriteString(separator + "\n\n")

	var complete, short []models.Item
	for _, it := range req.Items {
		if it.HasShortage() {
			short = append(short, it)
		} else {
			complete = append(complete, it)
		}
	}

	for _, it := range complete {
		b.WriteString("[OK] COMPLETE\n")
		fmt.Fprintf(b, "    Product:     %s\n", it.ProductName)
		fmt.Fprintf(b, "    UPC:         %s\n", it.UPC)
		fmt.Fprintf(b, "    Quantity:    %d/%d\n\n", it.PickedQty, it.RequestedQty)
	}

	for _, it := range short {
		b.WriteString("[!] SHORT\n")
		fmt.Fprintf(b, "    Product:     %s\n", it.ProductName)
		fmt.Fprintf(b, "    UPC:         %s\n", it.UPC)
		fmt.Fprintf(b, "    Requested:   %d\n", it.RequestedQty)
		fmt.Fprintf(b, "    Picked:      %d\n", it.PickedQty)
		fmt.Fprintf(b, "    Shortage:    %d items\n", it.Remaining())

		reason := "Not specified"
		if it.ShortageReason != nil {
			reason = shortageDisplayName(*it.ShortageReason)
		}
		fmt.Fprintf(b, "    Reason:      %s\n", reason)
		if it.ShortageNotes != "" {
			fmt.Fprintf(b, "    Notes:       %s\n", it.ShortageNotes)
		}
		b.WriteString("\n")
	}
}

func writeSummary(b *strings.Builder, req *models.Request) {
	b.WriteString(separator + "\n")
	b.WriteString("SUMMARY\n")
	b.WriteString(separator + "\n\n")

	var complete, short []models.Item
	for _, it := range req.Items {
		if it.HasShortage() {
			short = append(short, it)
		} else {
			complete = append(complete, it)
		}
	}

	fmt.Fprintf(b, "Total Products:     %d\n", len(req.Items))
	fmt.Fprintf(b, "Complete:           %d\n", len(complete))
	fmt.Fprintf(b, "Short:              %d\n\n", len(short))

	fmt.Fprintf(b, "Total Requested:    %d items\n", req.TotalRequested())
	fmt.Fprintf(b, "Total Picked:       %d items\n", req.TotalPicked())
	fmt.Fprintf(b, "Completion Rate:    %.1f%%\n\n", req.CompletionRate())

	if len(short) == 0 {
		return
	}

	b.WriteString(dashSeparator + "\n")
	b.WriteString("SHORTAGE DETAILS\n")
	b.WriteString(dashSeparator + "\n\n")

	totalShortage := 0
	for _, it := range short {
		totalShortage += it.Remaining()
	}
	fmt.Fprintf(b, "Total Items Short: %d\n", len(short))
	fmt.Fprintf(b, "Total Qty Short:   %d\n\n", totalShortage)

	order := make([]string, 0)
	byReason := make(map[string][]models.Item)
	for _, it := range short {
		reason := "Not specified"
		if it.ShortageReason != nil {
			reason = shortageDisplayName(*it.ShortageReason)
		}
		if _, ok := byReason[reason]; !ok {
			order = append(order, reason)
		}
		byReason[reason] = append(byReason[reason], it)
	}

	for _, reason := range order {
		fmt.Fprintf(b, "  %s:\n", reason)
		for _, it := range byReason[reason] {
			fmt.Fprintf(b, "    - %s: %d short\n", it.ProductName, it.Remaining())
			if it.ShortageNotes != "" {
				fmt.Fprintf(b, "      Note: %s\n", it.ShortageNotes)
			}
		}
		b.WriteString("\n")
	}
}

func shortageDisplayName(reason models.ShortageReason) string {
	switch reason {
	case models.ShortageOutOfStock:
		return "Out of Stock"
	case models.ShortageDamaged:
		return "Damaged"
	case models.ShortageExpired:
		return "Expired"
	case models.ShortageNotFound:
		return "Not Found"
	case models.ShortageOther:
		return "Other"
	default:
		return "Not specified"
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "N/A"
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, pluralize(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, pluralize(minutes, "minute"))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, pluralize(secs, "second"))
	}
	return strings.Join(parts, " ")
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
