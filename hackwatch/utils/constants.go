package utils

const (
	SuccessColor    = 0x2ECC71
	ErrorColor      = 0xE74C3C
	InfoColor       = 0x3498DB
	GoldColor       = 0xF1C40F
	FirstBloodColor = 0xC0392B
	PurpleColor     = 0x9B59B6

	// CryptoHack branding used in embed footers.
	FooterText    = "CryptoHack"
	FooterIconURL = "https://cryptohack.org/static/img/favicon.ico"

	// Entries shown per page in paginated lists.
	UsersPerPage   = 15
	SolversPerPage = 10
)
