package handlers

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"kelasbot/internal/router"
	"kelasbot/internal/timefmt"
)

var motivationQuotes = []string{
	"Belajar hari ini, sukses esok hari! 📚✨",
	"Jangan tunda sampai besok apa yang bisa dikerjakan hari ini. 💪",
	"Kegagalan adalah kesuksesan yang tertunda. Terus semangat! 🔥",
	"Pendidikan adalah senjata paling ampuh untuk mengubah dunia. 🌍",
	"Sedikit demi sedikit, lama-lama menjadi bukit. ⛰️",
	"Orang yang berhenti belajar adalah pemilik masa lalu. Teruslah belajar! 🚀",
	"Mimpi besar dimulai dari langkah kecil hari ini. 🌟",
}

func registerMisc(reg *router.Registry, deps Deps) {
	reg.Register(router.Command{
		Name:           "ping",
		Aliases:        []string{"status"},
		Description:    "Mengecek status bot",
		Usage:          ".ping",
		Category:       catUtil,
		CooldownExempt: true,
		Handle:         handlePing(deps),
	})
	reg.Register(router.Command{
		Name:           "menu",
		Aliases:        []string{"help", "bantuan"},
		Description:    "Menampilkan daftar command",
		Usage:          ".menu [command]",
		Category:       catUtil,
		CooldownExempt: true,
		Handle:         handleMenu,
	})
	reg.Register(router.Command{
		Name:        "info",
		Description: "Informasi tentang bot ini",
		Usage:       ".info",
		Category:    catUtil,
		Handle:      handleInfo,
	})
	reg.Register(router.Command{
		Name:        "tanggal",
		Aliases:     []string{"hari"},
		Description: "Menampilkan hari dan tanggal hari ini",
		Usage:       ".tanggal",
		Category:    catUtil,
		Handle:      handleToday,
	})
	reg.Register(router.Command{
		Name:        "motivasi",
		Aliases:     []string{"quote"},
		Description: "Kata-kata motivasi acak",
		Usage:       ".motivasi",
		Category:    catUtil,
		Handle:      handleMotivation,
	})
	reg.Register(router.Command{
		Name:        "random_anggota",
		Aliases:     []string{"randomanggota"},
		Description: "Memilih anggota grup secara acak",
		Usage:       ".random_anggota [jumlah]",
		Category:    catUtil,
		GroupOnly:   true,
		Handle:      handleRandomMember,
	})
}

func handlePing(deps Deps) router.HandlerFunc {
	return func(ctx context.Context, req *router.Request) error {
		uptime := time.Since(deps.StartedAt).Round(time.Second)
		reminderState := "berhenti"
		if deps.Reminder != nil && deps.Reminder.Running() {
			reminderState = "aktif"
		}

		text := "🏓 *Pong!*\n\n"
		text += fmt.Sprintf("🤖 *Bot:* %s\n", req.Cfg.BotName)
		text += fmt.Sprintf("⏱️ *Uptime:* %s\n", uptime)
		text += fmt.Sprintf("💾 *Storage:* %s\n", deps.Driver)
		text += fmt.Sprintf("⏰ *Pengingat:* %s", reminderState)
		return req.Reply(ctx, text)
	}
}

func handleMenu(ctx context.Context, req *router.Request) error {
	if len(req.Args) > 0 {
		return replyCommandDetail(ctx, req, req.Args[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🤖 *%s*\n", req.Cfg.BotName)
	b.WriteString("Daftar command yang tersedia:\n\n")
	for _, cat := range req.Registry.Categories() {
		fmt.Fprintf(&b, "*— %s —*\n", cat)
		for _, c := range req.Registry.ByCategory(cat) {
			marker := ""
			if c.AdminOnly {
				marker = " 👑"
			}
			fmt.Fprintf(&b, "• `%s%s`%s — %s\n", req.Cfg.Prefix, c.Name, marker, c.Description)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Ketik `%smenu <command>` untuk detail. 👑 = khusus admin.", req.Cfg.Prefix)
	return req.Reply(ctx, b.String())
}

func replyCommandDetail(ctx context.Context, req *router.Request, token string) error {
	c := req.Registry.Resolve(token)
	if c == nil {
		return req.Reply(ctx, fmt.Sprintf("🤔 Command `%s%s` tidak ditemukan. Lihat `%smenu` untuk daftar lengkap.",
			req.Cfg.Prefix, strings.ToLower(token), req.Cfg.Prefix))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ℹ️ *%s%s*\n\n", req.Cfg.Prefix, c.Name)
	fmt.Fprintf(&b, "%s\n\n", c.Description)
	fmt.Fprintf(&b, "*Format:* `%s`\n", c.Usage)
	if len(c.Aliases) > 0 {
		fmt.Fprintf(&b, "*Alias:* %s\n", strings.Join(c.Aliases, ", "))
	}
	if c.AdminOnly {
		b.WriteString("*Akses:* khusus admin 👑\n")
	}
	if c.GroupOnly {
		b.WriteString("*Lingkup:* hanya di grup\n")
	}
	return req.Reply(ctx, strings.TrimRight(b.String(), "\n"))
}

func handleInfo(ctx context.Context, req *router.Request) error {
	text := fmt.Sprintf("🤖 *%s*\n\n", req.Cfg.BotName)
	text += "Bot pengelola kelas: mencatat tugas, mengingatkan deadline, menyimpan jadwal pelajaran dan pengumuman.\n\n"
	text += fmt.Sprintf("Ketik `%smenu` untuk melihat semua command.", req.Cfg.Prefix)
	return req.Reply(ctx, text)
}

func handleToday(ctx context.Context, req *router.Request) error {
	now := time.Now().In(req.Loc)
	day := capitalize(timefmt.WeekdayName(now, req.Loc))
	text := "📅 *Hari Ini*\n\n"
	text += fmt.Sprintf("%s, %s\n", day, timefmt.FormatDate(now, req.Loc))
	text += fmt.Sprintf("🕐 %s WIB", now.Format("15:04"))
	return req.Reply(ctx, text)
}

func handleMotivation(ctx context.Context, req *router.Request) error {
	q := motivationQuotes[rand.Intn(len(motivationQuotes))]
	return req.Reply(ctx, fmt.Sprintf("💡 *Motivasi Hari Ini*\n\n_%s_", q))
}

// handleRandomMember draws candidates from the group excluding the caller,
// so nobody can roll the dice onto themselves.
func handleRandomMember(ctx context.Context, req *router.Request) error {
	ps, err := req.Sender.GroupParticipants(ctx, req.Msg.Chat)
	if err != nil {
		return fmt.Errorf("group participants: %w", err)
	}

	var candidates []string
	for _, p := range ps {
		if p.ID == req.Msg.Sender {
			continue
		}
		candidates = append(candidates, jidUser(p.ID))
	}
	if len(candidates) == 0 {
		return req.Reply(ctx, "❌ *Tidak Cukup Anggota*\n\nButuh minimal 2 anggota untuk random pick.")
	}

	n := 1
	if len(req.Args) > 0 {
		if v, err := strconv.Atoi(req.Args[0]); err == nil && v > 0 {
			n = v
		}
	}
	if n > len(candidates) {
		return req.Reply(ctx, fmt.Sprintf("❌ *Anggota Tidak Cukup*\n\nHanya ada %d anggota yang bisa dipilih.", len(candidates)))
	}
	if n > 10 {
		return req.Reply(ctx, "❌ *Terlalu Banyak*\n\nMaksimal 10 anggota dalam satu random pick.")
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	picked := candidates[:n]

	var b strings.Builder
	b.WriteString("🎲 *Random Anggota*\n\n")
	if n == 1 {
		fmt.Fprintf(&b, "🎯 *Terpilih:* @%s\n", picked[0])
	} else {
		b.WriteString("🎯 *Terpilih:*\n")
		for i, c := range picked {
			fmt.Fprintf(&b, "%d. @%s\n", i+1, c)
		}
	}
	b.WriteString("\nSelamat! 🎉")
	return req.Reply(ctx, b.String())
}
