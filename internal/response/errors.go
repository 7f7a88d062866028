package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrAdminAccessOnly  ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrQuizNotFound        ErrCode = "QUIZ_NOT_FOUND"
	ErrEmptyBank           ErrCode = "EMPTY_BANK"
	ErrInvalidQuizDocument ErrCode = "INVALID_QUIZ_DOCUMENT"
	ErrResultNotFound      ErrCode = "RESULT_NOT_FOUND"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrNotSessionOwner   ErrCode = "NOT_SESSION_OWNER"
	ErrSessionClosed     ErrCode = "SESSION_CLOSED"
	ErrNotPresenting     ErrCode = "NOT_PRESENTING"
	ErrInvalidOption     ErrCode = "INVALID_OPTION"
	ErrNextNotReady      ErrCode = "NEXT_NOT_READY"
	ErrNoActiveSession   ErrCode = "NO_ACTIVE_SESSION"
	ErrPersistenceFailed ErrCode = "PERSISTENCE_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrTokenExpired:
		return "Token autentikasi telah kedaluwarsa."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrPermissionDenied:
		return "Izin ditolak."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrQuizNotFound:
		return "Kuis tidak ditemukan."
	case ErrEmptyBank:
		return "Kuis ini tidak memiliki pertanyaan yang dapat digunakan."
	case ErrInvalidQuizDocument:
		return "Dokumen kuis hasil generasi tidak valid."
	case ErrResultNotFound:
		return "Hasil kuis tidak ditemukan."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrSessionNotFound:
		return "Sesi kuis tidak ditemukan atau sudah berakhir."
	case ErrNotSessionOwner:
		return "Sesi kuis ini milik pengguna lain."
	case ErrSessionClosed:
		return "Sesi kuis sudah ditutup."
	case ErrNotPresenting:
		return "Tidak ada pertanyaan yang sedang menunggu jawaban."
	case ErrInvalidOption:
		return "Pilihan jawaban tidak valid."
	case ErrNextNotReady:
		return "Pertanyaan berikutnya belum siap."
	case ErrNoActiveSession:
		return "Tidak ada sesi kuis yang sedang berjalan."
	case ErrPersistenceFailed:
		return "Skor dihitung tetapi hasil gagal disimpan."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
