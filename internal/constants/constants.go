package constants

// Centralized constants for env keys, routes, realtime events and
// user-visible error messages.
const (
	// Environment variable keys
	EnvConfigPath   = "DNDSE_CONFIG"
	EnvDatabasePath = "DNDSE_DB"
	EnvGeminiAPIKey = "GEMINI_API_KEY"

	// Defaults applied when the config file omits a value
	DefaultConfigPath     = "./dnd_session_config.json"
	DefaultDatabasePath   = "./data/dnd_sessions.db"
	DefaultServerAddress  = ":8080"
	DefaultGeminiModel    = "gemini-1.5-flash"
	DefaultContextLimit   = 20
	DefaultNarrativeTTL   = 3600 // seconds
	DefaultNarrativeWait  = 30   // seconds
	DefaultIdleMinutes    = 60
	DefaultNarratorPrompt = "You are the Dungeon Master for an ongoing tabletop campaign. Stay in character, keep replies under three paragraphs, and end with a hook for the players. Player says: {{message}}"
)

// Routes used by the backend router
const (
	RouteAPIPrefix       = "/api"
	RouteHealth          = "/health"
	RouteVersion         = "/version"
	RouteCampaigns       = "/campaigns"
	RouteCampaignByID    = "/campaigns/:campaignID"
	RouteCharacters      = "/characters"
	RouteCharacterByID   = "/characters/:characterID"
	RouteSessions        = "/sessions"
	RouteSessionByID     = "/sessions/:sessionID"
	RouteSessionMessages = "/sessions/:sessionID/messages"
	RouteWebsocket       = "/ws"
)

// Realtime event names. Inbound events arrive from clients over the
// websocket; outbound events fan out to the session room or to the
// calling connection only.
const (
	// inbound
	EventJoinSession  = "join-session"
	EventLeaveSession = "leave-session"
	EventSkillCheck   = "skill-check"
	EventCombatAction = "combat-action"
	EventStoryAction  = "story-action"
	EventAIMessage    = "ai-message"
	EventStartCombat  = "start-combat"
	EventEndCombat    = "end-combat"
	EventEndSession   = "end-session"

	// outbound
	EventSessionJoined         = "session-joined"
	EventPlayerJoined          = "player-joined"
	EventSkillCheckResult      = "skill-check-result"
	EventSkillCheckPerformed   = "skill-check-performed"
	EventCombatResult          = "combat-result"
	EventCombatActionPerformed = "combat-action-performed"
	EventStoryEventAdded       = "story-event-added"
	EventAIResponse            = "ai-response"
	EventCombatStarted         = "combat-started"
	EventCombatEnded           = "combat-ended"
	EventSessionEnded          = "session-ended"
	EventError                 = "error"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyStatus  = "status"
)

// Common error messages surfaced to clients. Short and human readable;
// internal identifiers and stack traces stay in the logs.
const (
	ErrInvalidRequest    = "Invalid request"
	ErrSessionNotFound   = "Session not found"
	ErrCharacterNotFound = "Character not found"
	ErrCampaignNotFound  = "Campaign not found"
	ErrUnknownAction     = "Unknown combat action"
	ErrCombatNotActive   = "Combat is not active"
	ErrFailedCreate      = "Failed to create record"
	ErrFailedFetch       = "Failed to fetch record"
	ErrFailedPersist     = "Failed to persist change"
)

// Logging field names
const (
	LogFieldSessionID   = "session_id"
	LogFieldCharacterID = "character_id"
	LogFieldSkill       = "skill"
	LogFieldAction      = "action"
	LogFieldEvent       = "event"
	LogFieldSource      = "source"
	LogFieldKey         = "key"
	LogFieldAddr        = "addr"
)
