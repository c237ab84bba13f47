package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"kelasbot/internal/auth"
	"kelasbot/internal/router"
	"kelasbot/internal/store"
	"kelasbot/internal/timefmt"
)

func registerInfo(reg *router.Registry) {
	reg.Register(router.Command{
		Name:        "jadwal",
		Aliases:     []string{"jadwal_pelajaran"},
		Description: "Menampilkan jadwal pelajaran hari ini atau hari tertentu",
		Usage:       ".jadwal [hari]",
		Category:    catInfo,
		GroupOnly:   true,
		Handle:      handleSchedule,
	})
	reg.Register(router.Command{
		Name:        "set_jadwal",
		Aliases:     []string{"setjadwal"},
		Description: "Mengatur jadwal pelajaran untuk satu hari",
		Usage:       ".set_jadwal <hari> | Mapel 07:00-08:30 | Mapel 08:30-10:00 | ...",
		Category:    catInfo,
		GroupOnly:   true,
		AdminOnly:   true,
		Handle:      handleSetSchedule,
	})
	reg.Register(router.Command{
		Name:        "pengumuman",
		Aliases:     []string{"announcement"},
		Description: "Menampilkan pengumuman terbaru",
		Usage:       ".pengumuman",
		Category:    catInfo,
		GroupOnly:   true,
		Handle:      handleAnnouncements,
	})
	reg.Register(router.Command{
		Name:        "tambah_pengumuman",
		Aliases:     []string{"addpengumuman"},
		Description: "Membuat pengumuman baru",
		Usage:       ".tambah_pengumuman Judul | Isi pengumuman",
		Category:    catInfo,
		GroupOnly:   true,
		AdminOnly:   true,
		Handle:      handleAddAnnouncement,
	})
	reg.Register(router.Command{
		Name:        "hapus_pengumuman",
		Aliases:     []string{"delpengumuman"},
		Description: "Menghapus pengumuman berdasarkan nomor",
		Usage:       ".hapus_pengumuman <nomor>",
		Category:    catInfo,
		GroupOnly:   true,
		AdminOnly:   true,
		Handle:      handleDeleteAnnouncement,
	})
	reg.Register(router.Command{
		Name:        "guru",
		Aliases:     []string{"daftar_guru"},
		Description: "Daftar guru dan kontaknya",
		Usage:       ".guru [mapel]",
		Category:    catInfo,
		Handle:      handleTeachers,
	})
	reg.Register(router.Command{
		Name:        "kontak_kelas",
		Aliases:     []string{"kontakkelas"},
		Description: "Info anggota dan admin grup",
		Usage:       ".kontak_kelas",
		Category:    catInfo,
		GroupOnly:   true,
		Handle:      handleClassContacts,
	})
}

type teacherContact struct {
	Name  string
	Phone string
}

// teacherDirectory is the class's static teacher list, editable in source
// the same way the schedule default is.
var teacherDirectory = map[string]teacherContact{
	"fisika":                  {Name: "Buk Dina", Phone: "081275219190"},
	"kimia":                   {Name: "Buk Sri", Phone: "081275592945"},
	"bahasa indonesia":        {Name: "Buk Ayu", Phone: "081270603006"},
	"sejarah":                 {Name: "Buk Nofianti", Phone: "082385507156"},
	"penjas":                  {Name: "Buk Tri Ayunita", Phone: "082216129962"},
	"pkn":                     {Name: "Buk Risma", Phone: "081387754520"},
	"biologi":                 {Name: "Buk Nelly", Phone: "085264692058"},
	"bahasa inggris lanjutan": {Name: "Buk Marlia", Phone: "081266709191"},
	"seni budaya":             {Name: "Pak Panca", Phone: "081363749622"},
}

func handleTeachers(ctx context.Context, req *router.Request) error {
	if len(req.Args) == 0 {
		subjects := make([]string, 0, len(teacherDirectory))
		for s := range teacherDirectory {
			subjects = append(subjects, s)
		}
		sort.Strings(subjects)

		var b strings.Builder
		b.WriteString("👨‍🏫 *Daftar Guru*\n\n")
		for _, s := range subjects {
			g := teacherDirectory[s]
			fmt.Fprintf(&b, "📚 *%s*\n", capitalize(s))
			fmt.Fprintf(&b, "   👤 %s\n", g.Name)
			fmt.Fprintf(&b, "   📱 %s\n\n", g.Phone)
		}
		fmt.Fprintf(&b, "💡 Ketik `%sguru <mapel>` untuk detail.", req.Cfg.Prefix)
		return req.Reply(ctx, b.String())
	}

	subject := strings.ToLower(strings.Join(req.Args, " "))
	g, ok := teacherDirectory[subject]
	if !ok {
		var similar []string
		for s := range teacherDirectory {
			if strings.Contains(s, subject) || strings.Contains(subject, s) {
				similar = append(similar, capitalize(s))
			}
		}
		sort.Strings(similar)

		text := fmt.Sprintf("❌ *Guru Tidak Ditemukan*\n\nMapel %q tidak ditemukan.\n\n", strings.Join(req.Args, " "))
		if len(similar) > 0 {
			text += fmt.Sprintf("Maksud kamu: %s?\n\n", strings.Join(similar, ", "))
		}
		text += fmt.Sprintf("Ketik `%sguru` untuk lihat semua guru.", req.Cfg.Prefix)
		return req.Reply(ctx, text)
	}

	text := "👨‍🏫 *Info Guru*\n\n"
	text += fmt.Sprintf("📚 *Mapel:* %s\n", capitalize(subject))
	text += fmt.Sprintf("👤 *Nama:* %s\n", g.Name)
	text += fmt.Sprintf("📱 *Kontak:* %s\n\n", g.Phone)
	text += fmt.Sprintf("💬 WhatsApp: https://wa.me/%s", auth.NormalizePhone(g.Phone))
	return req.Reply(ctx, text)
}

// jidUser strips the server part of a JID for display ("628xx@s.whatsapp.net"
// -> "628xx").
func jidUser(id string) string {
	if i := strings.IndexByte(id, '@'); i >= 0 {
		return id[:i]
	}
	return id
}

func handleClassContacts(ctx context.Context, req *router.Request) error {
	ps, err := req.Sender.GroupParticipants(ctx, req.Msg.Chat)
	if err != nil {
		return fmt.Errorf("group participants: %w", err)
	}

	var admins []int
	for i, p := range ps {
		if p.Role == "admin" || p.Role == "superadmin" {
			admins = append(admins, i)
		}
	}

	var b strings.Builder
	b.WriteString("👥 *Kontak Kelas*\n\n")
	fmt.Fprintf(&b, "👤 *Total Anggota:* %d\n", len(ps))
	fmt.Fprintf(&b, "👑 *Admin:* %d\n\n", len(admins))

	if len(admins) > 0 {
		b.WriteString("*Admin Grup:*\n")
		for _, i := range admins {
			emoji := "👤"
			if ps[i].Role == "superadmin" {
				emoji = "👑"
			}
			fmt.Fprintf(&b, "%s @%s\n", emoji, jidUser(ps[i].ID))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "💡 Gunakan `%srandom_anggota` untuk memilih anggota acak.", req.Cfg.Prefix)
	return req.Reply(ctx, b.String())
}

// defaultSchedule ships as a starting point until a group sets its own with
// set_jadwal.
var defaultSchedule = map[string][]store.Period{
	"senin":  {{Subject: "Upacara", TimeRange: "07:00-07:45"}, {Subject: "Matematika", TimeRange: "07:45-09:15"}, {Subject: "Bahasa Indonesia", TimeRange: "09:30-11:00"}},
	"selasa": {{Subject: "Fisika", TimeRange: "07:00-08:30"}, {Subject: "Kimia", TimeRange: "08:30-10:00"}, {Subject: "Bahasa Inggris", TimeRange: "10:15-11:45"}},
	"rabu":   {{Subject: "Biologi", TimeRange: "07:00-08:30"}, {Subject: "Sejarah", TimeRange: "08:30-10:00"}, {Subject: "Matematika", TimeRange: "10:15-11:45"}},
	"kamis":  {{Subject: "Bahasa Inggris", TimeRange: "07:00-08:30"}, {Subject: "Ekonomi", TimeRange: "08:30-10:00"}, {Subject: "PKN", TimeRange: "10:15-11:45"}},
	"jumat":  {{Subject: "Pendidikan Agama", TimeRange: "07:00-08:30"}, {Subject: "Olahraga", TimeRange: "08:30-10:00"}},
	"sabtu":  {{Subject: "Seni Budaya", TimeRange: "07:00-08:30"}, {Subject: "Prakarya", TimeRange: "08:30-10:00"}},
}

func handleSchedule(ctx context.Context, req *router.Request) error {
	day := timefmt.WeekdayName(time.Now(), req.Loc)
	if len(req.Args) > 0 {
		day = strings.ToLower(req.Args[0])
		if !timefmt.IsWeekdayName(day) {
			return req.Reply(ctx, "❌ *Hari Tidak Valid*\n\nGunakan: senin, selasa, rabu, kamis, jumat, sabtu, atau minggu.")
		}
	}
	if day == "minggu" {
		return req.Reply(ctx, "🏖️ *Hari Minggu*\n\nLibur! Tidak ada jadwal pelajaran. Selamat beristirahat! 😴")
	}

	sched, err := req.Store.GetSchedule(ctx, req.Msg.Chat)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get schedule: %w", err)
	}
	periods := sched.Days[day]
	usedDefault := false
	if len(periods) == 0 {
		periods = defaultSchedule[day]
		usedDefault = true
	}
	if len(periods) == 0 {
		return req.Reply(ctx, fmt.Sprintf("📭 *Belum Ada Jadwal*\n\nJadwal hari %s belum diatur. Admin bisa mengaturnya dengan `.set_jadwal`.", capitalize(day)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 *JADWAL PELAJARAN — %s*\n\n", strings.ToUpper(day))
	for i, p := range periods {
		fmt.Fprintf(&b, "%d. 📖 *%s*", i+1, p.Subject)
		if p.TimeRange != "" {
			fmt.Fprintf(&b, " (%s)", p.TimeRange)
		}
		b.WriteString("\n")
	}
	if usedDefault {
		b.WriteString("\n_Jadwal bawaan. Admin bisa menyesuaikan dengan `.set_jadwal`._\n")
	}
	b.WriteString("\nJangan lupa siapkan bukunya! 📚")
	return req.Reply(ctx, b.String())
}

// handleSetSchedule replaces one weekday's periods wholesale. Each pipe part
// after the day is "Subject HH:MM-HH:MM"; a part without a trailing time
// range is stored as a subject-only period.
func handleSetSchedule(ctx context.Context, req *router.Request) error {
	parts := req.PipeArgs()
	if len(parts) < 2 {
		return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
	}
	day := strings.ToLower(parts[0])
	if !timefmt.IsWeekdayName(day) {
		return req.Reply(ctx, "❌ *Hari Tidak Valid*\n\nGunakan: senin, selasa, rabu, kamis, jumat, atau sabtu.")
	}
	if day == "minggu" {
		return req.Reply(ctx, "🏖️ Hari Minggu libur, tidak perlu jadwal.")
	}

	periods := make([]store.Period, 0, len(parts)-1)
	for _, part := range parts[1:] {
		periods = append(periods, parsePeriod(part))
	}

	sched, err := req.Store.GetSchedule(ctx, req.Msg.Chat)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get schedule: %w", err)
	}
	if sched.Days == nil {
		sched.Days = map[string][]store.Period{}
	}
	sched.GroupID = req.Msg.Chat
	sched.Days[day] = periods

	if _, err := req.Store.PutSchedule(ctx, sched); err != nil {
		return fmt.Errorf("put schedule: %w", err)
	}
	return req.Reply(ctx, fmt.Sprintf("✅ *Jadwal Tersimpan*\n\nJadwal hari %s berhasil diatur (%d pelajaran). Lihat dengan `.jadwal %s`.",
		capitalize(day), len(periods), day))
}

// parsePeriod splits "Matematika 07:00-08:30" into subject and time range.
// The time range is the last whitespace token when it looks like one.
func parsePeriod(s string) store.Period {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, ' '); i > 0 {
		last := s[i+1:]
		if strings.Count(last, ":") == 2 && strings.Count(last, "-") == 1 {
			return store.Period{Subject: strings.TrimSpace(s[:i]), TimeRange: last}
		}
	}
	return store.Period{Subject: s}
}

func handleAnnouncements(ctx context.Context, req *router.Request) error {
	anns, err := req.Store.ListAnnouncements(ctx, req.Msg.Chat)
	if err != nil {
		return fmt.Errorf("list announcements: %w", err)
	}
	if len(anns) == 0 {
		return req.Reply(ctx, "📭 *Belum Ada Pengumuman*\n\nTidak ada pengumuman saat ini.")
	}
	if len(anns) > 5 {
		anns = anns[:5]
	}

	var b strings.Builder
	b.WriteString("📢 *PENGUMUMAN TERBARU*\n\n")
	for i, a := range anns {
		fmt.Fprintf(&b, "*%d. %s*\n", i+1, a.Title)
		fmt.Fprintf(&b, "%s\n", a.Body)
		fmt.Fprintf(&b, "_%s_\n\n", timefmt.FormatDateTime(a.CreatedAt, req.Loc))
	}
	return req.Reply(ctx, strings.TrimRight(b.String(), "\n"))
}

func handleAddAnnouncement(ctx context.Context, req *router.Request) error {
	parts := req.PipeArgs()
	if len(parts) != 2 {
		return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
	}
	a, err := req.Store.InsertAnnouncement(ctx, store.Announcement{
		GroupID:   req.Msg.Chat,
		Title:     parts[0],
		Body:      parts[1],
		CreatedBy: auth.NormalizePhone(req.Msg.Sender),
	})
	if err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}

	text := "📢 *PENGUMUMAN BARU*\n\n"
	text += fmt.Sprintf("*%s*\n\n%s", a.Title, a.Body)
	return req.Reply(ctx, text)
}

func handleDeleteAnnouncement(ctx context.Context, req *router.Request) error {
	if len(req.Args) != 1 {
		return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
	}
	n, err := strconv.Atoi(req.Args[0])
	if err != nil || n < 1 {
		return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
	}

	anns, err := req.Store.ListAnnouncements(ctx, req.Msg.Chat)
	if err != nil {
		return fmt.Errorf("list announcements: %w", err)
	}
	if n > len(anns) {
		return req.Reply(ctx, fmt.Sprintf("❌ *Nomor Tidak Valid*\n\nHanya ada %d pengumuman.", len(anns)))
	}

	deleted, err := req.Store.DeleteAnnouncement(ctx, anns[n-1].ID, req.Msg.Chat)
	if errors.Is(err, store.ErrNotFound) {
		return req.Reply(ctx, "⚠️ *Daftar Berubah*\n\nDaftar pengumuman berubah sejak terakhir dilihat. Coba `.pengumuman` lagi lalu ulangi.")
	}
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return req.Reply(ctx, fmt.Sprintf("🗑️ *Pengumuman Dihapus*\n\n*%s*", deleted.Title))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
