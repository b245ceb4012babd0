package messages

// Message ids of the bundled catalogs.
const (
	Welcome        = "welcome"
	Help           = "help"
	MainMenuHeader = "main_menu_header"
	MainMenuText   = "main_menu_text"
	AboutText      = "about_text"

	BtnLifePath             = "btn_life_path"
	BtnCompatibility        = "btn_compatibility"
	BtnProfile              = "btn_profile"
	BtnAbout                = "btn_about"
	BtnFeedback             = "btn_feedback"
	BtnPremiumInfo          = "btn_premium_info"
	BtnBackMain             = "btn_back_main"
	BtnBack                 = "btn_back"
	BtnSubscribe            = "btn_subscribe"
	BtnPremiumFeatures      = "btn_premium_features"
	BtnPremiumFull          = "btn_premium_full"
	BtnPremiumCompatibility = "btn_premium_compatibility"
	BtnCalculate            = "btn_calculate"
	BtnRecalculate          = "btn_recalculate"
	BtnCancel               = "btn_cancel"
	BtnFeedbackReview       = "btn_feedback_review"
	BtnFeedbackSuggestion   = "btn_feedback_suggestion"
	BtnFeedbackBug          = "btn_feedback_bug"

	PremiumFullText          = "premium_full_text"
	PremiumCompatibilityText = "premium_compatibility_text"
	PremiumInfoText          = "premium_info_text"
	PremiumFeaturesText      = "premium_features_text"
	SubscribeUnavailable     = "subscribe_unavailable"

	LifePathPrompt  = "life_path_prompt"
	DateInvalid     = "date_invalid"
	LifePathResult  = "life_path_result"
	TextUnavailable = "text_unavailable"

	CompatPromptFirst  = "compat_prompt_first"
	CompatPromptSecond = "compat_prompt_second"
	CompatResult       = "compat_result"
	LevelPrefix        = "level_"

	ProfileText  = "profile_text"
	ProfileEmpty = "profile_empty"

	DailyNotification      = "daily_notification"
	DailyFallback          = "daily_fallback"
	BtnNotificationsOn     = "btn_notifications_on"
	BtnNotificationsOff    = "btn_notifications_off"
	NotificationsOn        = "notifications_on"
	NotificationsOff       = "notifications_off"
	NotificationsStatusOn  = "notifications_status_on"
	NotificationsStatusOff = "notifications_status_off"

	FeedbackMenu   = "feedback_menu"
	FeedbackPrompt = "feedback_prompt"
	FeedbackEmpty  = "feedback_empty"
	FeedbackThanks = "feedback_thanks"
	Cancelled      = "cancelled"

	UnknownCommand  = "unknown_command"
	UnknownCallback = "unknown_callback"
	ErrorGeneric    = "error_generic"
	AdminOnly       = "admin_only"
	RateLimited     = "rate_limited"
	StatsText       = "stats_text"

	CmdStart       = "cmd_start"
	CmdMenu        = "cmd_menu"
	CmdHelp        = "cmd_help"
	CmdLifePath    = "cmd_lifepath"
	CmdCompat      = "cmd_compatibility"
	CmdProfile     = "cmd_profile"
	CmdAbout       = "cmd_about"
	CmdPremiumInfo = "cmd_premium_info"
	CmdFeedback    = "cmd_feedback"
	CmdStats       = "cmd_stats"
)
