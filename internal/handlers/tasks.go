package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kelasbot/internal/auth"
	"kelasbot/internal/router"
	"kelasbot/internal/store"
	"kelasbot/internal/timefmt"
)

const noticeListChanged = "⚠️ *Daftar Berubah*\n\nDaftar tugas berubah sejak terakhir dilihat. Coba `.list_tugas` lagi lalu ulangi."

func registerTasks(reg *router.Registry) {
	reg.Register(router.Command{
		Name:        "tambah_tugas",
		Aliases:     []string{"addtugas", "add_tugas"},
		Description: "Menambahkan tugas baru",
		Usage:       ".tambah_tugas Mapel | Deskripsi | DD-MM-YYYY",
		Category:    catTugas,
		GroupOnly:   true,
		AdminOnly:   true,
		Handle:      handleAddTask,
	})
	reg.Register(router.Command{
		Name:        "list_tugas",
		Aliases:     []string{"listtugas", "tugas"},
		Description: "Menampilkan semua tugas aktif",
		Usage:       ".list_tugas",
		Category:    catTugas,
		GroupOnly:   true,
		Handle:      handleListTasks,
	})
	reg.Register(router.Command{
		Name:        "hapus_tugas",
		Aliases:     []string{"hapustugas", "deltugas"},
		Description: "Menghapus tugas berdasarkan nomor",
		Usage:       ".hapus_tugas <nomor>",
		Category:    catTugas,
		GroupOnly:   true,
		AdminOnly:   true,
		Handle:      handleDeleteTask,
	})
	reg.Register(router.Command{
		Name:        "edit_tugas",
		Aliases:     []string{"edittugas"},
		Description: "Mengubah mapel, deskripsi, atau deadline sebuah tugas",
		Usage:       ".edit_tugas <nomor> | <mapel/deskripsi/deadline> | <nilai baru>",
		Category:    catTugas,
		GroupOnly:   true,
		AdminOnly:   true,
		Handle:      handleEditTask,
	})
	reg.Register(router.Command{
		Name:        "deadline",
		Aliases:     []string{"dl"},
		Description: "Menampilkan tugas dengan deadline terdekat",
		Usage:       ".deadline",
		Category:    catTugas,
		GroupOnly:   true,
		Handle:      handleDeadline,
	})
}

func handleAddTask(ctx context.Context, req *router.Request) error {
	parts := req.PipeArgs()
	if len(parts) != 3 {
		return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
	}
	subject, desc, rawDate := parts[0], parts[1], parts[2]

	deadline, err := timefmt.ParseDate(rawDate, req.Loc)
	if err != nil {
		return req.Reply(ctx, "❌ *Tanggal Tidak Valid*\n\nGunakan format tanggal `DD-MM-YYYY`, contoh: `25-12-2026`.")
	}
	if deadline.Before(time.Now()) {
		return req.Reply(ctx, "❌ *Deadline Sudah Lewat*\n\nDeadline harus hari ini atau setelahnya.")
	}

	t, err := req.Store.InsertTask(ctx, store.Task{
		GroupID:     req.Msg.Chat,
		Subject:     subject,
		Description: desc,
		Deadline:    deadline,
		CreatedBy:   auth.NormalizePhone(req.Msg.Sender),
	})
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	days := timefmt.DaysUntil(time.Now(), t.Deadline, req.Loc)
	text := "✅ *Tugas Berhasil Ditambahkan!*\n\n"
	text += fmt.Sprintf("📚 *Mapel:* %s\n", t.Subject)
	text += fmt.Sprintf("📝 *Deskripsi:* %s\n", t.Description)
	text += fmt.Sprintf("📅 *Deadline:* %s (%s)\n\n", timefmt.FormatDate(t.Deadline, req.Loc), timefmt.RelativeLabel(days))
	text += "Pengingat otomatis akan dikirim sehari sebelum deadline ⏰"
	return req.Reply(ctx, text)
}

func handleListTasks(ctx context.Context, req *router.Request) error {
	tasks, err := req.Store.ListTasks(ctx, req.Msg.Chat)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return req.Reply(ctx, "📭 *Belum Ada Tugas*\n\nTidak ada tugas tersimpan. Santai dulu! 🎉")
	}

	now := time.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *DAFTAR TUGAS* (%d)\n\n", len(tasks))
	for i, t := range tasks {
		days := timefmt.DaysUntil(now, t.Deadline, req.Loc)
		fmt.Fprintf(&b, "%s *%d. %s*\n", urgencyEmoji(days), i+1, t.Subject)
		fmt.Fprintf(&b, "   📝 %s\n", t.Description)
		fmt.Fprintf(&b, "   📅 %s (%s)\n\n", timefmt.FormatDate(t.Deadline, req.Loc), timefmt.RelativeLabel(days))
	}
	b.WriteString("Gunakan `.hapus_tugas <nomor>` untuk menghapus tugas yang sudah selesai.")
	return req.Reply(ctx, b.String())
}

// handleDeleteTask resolves the user's ordinal against a fresh snapshot at
// execution time. If the underlying task vanished between the snapshot and
// the delete (another admin won the race), the sender is told the list
// changed instead of a random other task being removed.
func handleDeleteTask(ctx context.Context, req *router.Request) error {
	if len(req.Args) != 1 {
		return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
	}
	n, err := strconv.Atoi(req.Args[0])
	if err != nil || n < 1 {
		return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
	}

	tasks, err := req.Store.ListTasks(ctx, req.Msg.Chat)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return req.Reply(ctx, "📭 *Belum Ada Tugas*\n\nTidak ada tugas yang bisa dihapus.")
	}
	if n > len(tasks) {
		return req.Reply(ctx, fmt.Sprintf("❌ *Nomor Tidak Valid*\n\nHanya ada %d tugas. Cek `.list_tugas` dulu ya.", len(tasks)))
	}

	target := tasks[n-1]
	deleted, err := req.Store.DeleteTask(ctx, target.ID, req.Msg.Chat)
	if errors.Is(err, store.ErrNotFound) {
		return req.Reply(ctx, noticeListChanged)
	}
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	text := "🗑️ *Tugas Dihapus*\n\n"
	text += fmt.Sprintf("📚 *Mapel:* %s\n", deleted.Subject)
	text += fmt.Sprintf("📝 *Deskripsi:* %s", deleted.Description)
	return req.Reply(ctx, text)
}

// editable fields, user token -> patch builder
func buildPatch(field, value string, loc *time.Location) (store.TaskPatch, string, bool) {
	switch strings.ToLower(field) {
	case "mapel":
		return store.TaskPatch{Subject: &value}, "", true
	case "deskripsi":
		return store.TaskPatch{Description: &value}, "", true
	case "deadline":
		d, err := timefmt.ParseDate(value, loc)
		if err != nil {
			return store.TaskPatch{}, "❌ *Tanggal Tidak Valid*\n\nGunakan format tanggal `DD-MM-YYYY`.", false
		}
		return store.TaskPatch{Deadline: &d}, "", true
	default:
		return store.TaskPatch{}, "❌ *Field Tidak Dikenal*\n\nField yang bisa diubah: `mapel`, `deskripsi`, `deadline`.", false
	}
}

func handleEditTask(ctx context.Context, req *router.Request) error {
	parts := req.PipeArgs()
	if len(parts) != 3 {
		return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || n < 1 {
		return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
	}

	patch, notice, ok := buildPatch(parts[1], parts[2], req.Loc)
	if !ok {
		return req.Reply(ctx, notice)
	}

	tasks, err := req.Store.ListTasks(ctx, req.Msg.Chat)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if n > len(tasks) {
		return req.Reply(ctx, fmt.Sprintf("❌ *Nomor Tidak Valid*\n\nHanya ada %d tugas. Cek `.list_tugas` dulu ya.", len(tasks)))
	}

	updated, err := req.Store.UpdateTask(ctx, tasks[n-1].ID, patch)
	if errors.Is(err, store.ErrNotFound) {
		return req.Reply(ctx, noticeListChanged)
	}
	if errors.Is(err, store.ErrDeadlineBeforeCreation) {
		return req.Reply(ctx, "❌ *Tanggal Tidak Valid*\n\nDeadline tidak boleh sebelum tugas dibuat.")
	}
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	days := timefmt.DaysUntil(time.Now(), updated.Deadline, req.Loc)
	text := "✏️ *Tugas Diperbarui*\n\n"
	text += fmt.Sprintf("📚 *Mapel:* %s\n", updated.Subject)
	text += fmt.Sprintf("📝 *Deskripsi:* %s\n", updated.Description)
	text += fmt.Sprintf("📅 *Deadline:* %s (%s)", timefmt.FormatDate(updated.Deadline, req.Loc), timefmt.RelativeLabel(days))
	return req.Reply(ctx, text)
}

func handleDeadline(ctx context.Context, req *router.Request) error {
	tasks, err := req.Store.ListTasks(ctx, req.Msg.Chat)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	now := time.Now()
	upcoming := tasks[:0:0]
	for _, t := range tasks {
		if t.Deadline.After(now) {
			upcoming = append(upcoming, t)
		}
	}
	if len(upcoming) == 0 {
		return req.Reply(ctx, "🎉 *Tidak Ada Deadline*\n\nSemua tugas sudah lewat deadline atau belum ada tugas.")
	}

	nearest := upcoming[0]
	days := timefmt.DaysUntil(now, nearest.Deadline, req.Loc)

	var b strings.Builder
	b.WriteString("⏰ *DEADLINE TERDEKAT*\n\n")
	fmt.Fprintf(&b, "%s *%s*\n", urgencyEmoji(days), nearest.Subject)
	fmt.Fprintf(&b, "📝 %s\n", nearest.Description)
	fmt.Fprintf(&b, "📅 %s (%s)\n", timefmt.FormatDate(nearest.Deadline, req.Loc), timefmt.RelativeLabel(days))

	if len(upcoming) > 1 {
		b.WriteString("\n*Berikutnya:*\n")
		for i, t := range upcoming[1:] {
			if i >= 2 {
				break
			}
			d := timefmt.DaysUntil(now, t.Deadline, req.Loc)
			fmt.Fprintf(&b, "%s %s — %s\n", urgencyEmoji(d), t.Subject, timefmt.RelativeLabel(d))
		}
	}
	return req.Reply(ctx, b.String())
}

func urgencyEmoji(days int) string {
	switch {
	case days <= 1:
		return "🔴"
	case days <= 3:
		return "🟡"
	default:
		return "🟢"
	}
}
