package notifier

// Discord formatting constants
const (
	DiscordUsername   = "membertrack"
	SuccessEmbedColor = 0x5CB85C
	ErrorEmbedColor   = 0xD9534F
	WarningEmbedColor = 0xF0AD4E
)

const (
	MaxFieldValueLength = 1024 // Discord embed field limit
	MaxErrorSampleCount = 5
)
