package router

import (
	"fmt"
	"strconv"
	"strings"
)

// User-facing notices. Deliberately fixed strings: permission denials never
// explain which check failed beyond group/admin, and backend failures never
// leak details.
const (
	noticeGroupOnly = "❌ *Hanya untuk Grup*\n\nCommand ini hanya bisa digunakan di grup."
	noticeAdminOnly = "❌ *Khusus Admin*\n\nCommand ini hanya bisa digunakan oleh admin."
	noticeError     = "❌ *Terjadi Kesalahan*\n\nMaaf, terjadi kesalahan. Silakan coba lagi nanti."
	cooldownTmpl    = "⏳ *Tunggu Sebentar*\n\nKamu terlalu cepat! Tunggu {seconds} detik lagi."
)

func cooldownNotice(seconds int) string {
	return strings.ReplaceAll(cooldownTmpl, "{seconds}", strconv.Itoa(seconds))
}

// InvalidFormat builds the standard bad-arguments reply around a usage line.
func InvalidFormat(usage string) string {
	return fmt.Sprintf("❌ *Format Salah*\n\nGunakan format: `%s`", usage)
}

// GenericError is exposed for handlers that catch a backend failure at the
// point of detection instead of letting it bubble to the pipeline.
func GenericError() string { return noticeError }
