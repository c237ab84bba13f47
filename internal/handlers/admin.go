package handlers

import (
	"context"
	"fmt"

	"kelasbot/internal/auth"
	"kelasbot/internal/router"
)

func registerAdmin(reg *router.Registry, deps Deps) {
	reg.Register(router.Command{
		Name:        "cek_reminder",
		Aliases:     []string{"cekreminder"},
		Description: "Menjalankan pengecekan deadline sekarang juga",
		Usage:       ".cek_reminder",
		Category:    catAdmin,
		GroupOnly:   true,
		AdminOnly:   true,
		Handle:      handleCheckReminder(deps),
	})
	reg.Register(router.Command{
		Name:        "ringkasan",
		Aliases:     []string{"summary"},
		Description: "Mengirim ringkasan tugas seminggu ke depan",
		Usage:       ".ringkasan",
		Category:    catAdmin,
		GroupOnly:   true,
		AdminOnly:   true,
		Handle:      handleSummary(deps),
	})
	reg.Register(router.Command{
		Name:        "reset_cooldown",
		Aliases:     []string{"resetcooldown"},
		Description: "Menghapus cooldown seorang pengguna",
		Usage:       ".reset_cooldown <nomor HP> [command]",
		Category:    catAdmin,
		AdminOnly:   true,
		Handle:      handleResetCooldown(deps),
	})
}

func handleCheckReminder(deps Deps) router.HandlerFunc {
	return func(ctx context.Context, req *router.Request) error {
		if deps.Reminder == nil {
			return req.Reply(ctx, "⏰ Layanan pengingat tidak aktif.")
		}
		if err := deps.Reminder.CheckNow(ctx); err != nil {
			return fmt.Errorf("reminder check: %w", err)
		}
		return req.Reply(ctx, "✅ *Pengecekan Selesai*\n\nSemua deadline sudah dicek. Pengingat terkirim untuk tugas yang mendesak.")
	}
}

func handleSummary(deps Deps) router.HandlerFunc {
	return func(ctx context.Context, req *router.Request) error {
		if deps.Reminder == nil {
			return req.Reply(ctx, "⏰ Layanan pengingat tidak aktif.")
		}
		if err := deps.Reminder.SendSummary(ctx, req.Msg.Chat); err != nil {
			return fmt.Errorf("send summary: %w", err)
		}
		return nil
	}
}

// handleResetCooldown clears cooldowns by phone number. The limiter is
// keyed by full sender JID, but the number forms its prefix, so matching on
// the normalized number works for both keys the user could be stored under.
func handleResetCooldown(deps Deps) router.HandlerFunc {
	return func(ctx context.Context, req *router.Request) error {
		if len(req.Args) < 1 || len(req.Args) > 2 {
			return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
		}
		phone := auth.NormalizePhone(req.Args[0])
		if phone == "" {
			return req.Reply(ctx, router.InvalidFormat(req.Cmd.Usage))
		}
		command := ""
		if len(req.Args) == 2 {
			// Cooldowns are keyed by canonical name; follow aliases the
			// same way the pipeline does.
			command = req.Args[1]
			if c := req.Registry.Resolve(command); c != nil {
				command = c.Name
			}
		}

		sender := phone + "@s.whatsapp.net"
		n := deps.Limiter.Clear(sender, command)
		if n == 0 {
			return req.Reply(ctx, fmt.Sprintf("ℹ️ Tidak ada cooldown aktif untuk %s.", phone))
		}
		return req.Reply(ctx, fmt.Sprintf("✅ *Cooldown Direset*\n\n%d cooldown untuk %s dihapus.", n, phone))
	}
}
