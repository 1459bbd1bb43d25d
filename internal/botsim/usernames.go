package botsim

import "math/rand"

// usernames is the synthetic-leader pool. Entries imitate handles people
// actually pick (gaming tags, streamer suffixes, birth years, short forms)
// so the live feed reads as human traffic.
var usernames = []string{
	// gaming tags
	"xXDarkKnightXx", "ProGamerHD", "NinjaStyle_", "ShadowHunter99", "IceWolf42",
	"FireDragon88", "ThunderStrike_", "BlazeFury", "NightRaven_", "StormBreaker_",
	"GhostRider_92", "SilentKiller_", "RapidFire_88", "DeadShot99", "WarMachine_",
	"IronFist_77", "TitanSlayer", "NoMercy_", "LegendKiller_", "BeastMode99",
	"xXSniperXx", "ProPlayer_94", "EliteGamer_", "xXAceXx", "MasterChief_",
	"Headhunter_", "Quickscope_", "FragMaster_", "xXViperXx", "GodMode_88",
	// streamer suffixes
	"lucas.ttv", "emma.yt", "maxime.live", "lea.stream", "theo.tv",
	"sarah_ttv", "kevin.twitch", "marie.yt", "nathan_live", "chloe.tv",
	"hugo.ttv", "julie_stream", "tom.yt", "clara.live", "paul_ttv",
	"lena.twitch", "enzo.yt", "jade_tv", "louis.stream", "manon.ttv",
	// social handles
	"emma.off", "lucas.ofc", "theo.official", "lea.daily", "maxime.gram",
	"just.emma", "its.lucas", "real.theo", "hey.lea", "the.maxime",
	"vibes.emma", "mood.lucas", "vibes.theo", "mood.lea", "vibes.max",
	"only.tom", "just.julie", "its.paul", "real.clara", "hey.leo",
	// birth years
	"emma2004", "lucas2003", "theo2005", "lea2002", "maxime2004",
	"sarah2003", "hugo2005", "chloe2002", "nathan2001", "marie2004",
	"arthur99", "oceane00", "ethan01", "camille02", "nolan03",
	// region numbers
	"alex_75", "marine_69", "kevin_13", "laura_33", "dylan_59",
	"melissa_31", "jordan_44", "anais_06", "florian_67", "oceane_35",
	"bastien_38", "eva_83", "lucas_92", "emma_93", "theo_94",
	// underscores and dots
	"_emma", "_lucas", "_theo", "_lea", "_maxime",
	"emma_", "lucas_", "theo_", "lea_", "maxime_",
	"em.ma", "lu.cas", "the.o", "le.a", "max.ime",
	// leetish variants
	"em4a", "luc4s", "the0", "le4", "maxim3",
	"s4rah", "hug0", "chl0e", "n4than", "m4rie",
	// short forms
	"emm", "lcs", "thm", "mxm", "srh",
	"hgo", "chl", "ntn", "mre", "clr",
	// x/z prefixes
	"xemma", "xlucas", "xtheo", "xlea", "xmax",
	"zsarah", "zhugo", "xchloe", "znathan", "xmarie",
}

// DeterministicUsername picks the same name for the same seed on every
// viewer.
func DeterministicUsername(seed string) string {
	return usernames[HashSeed(seed)%int64(len(usernames))]
}

// RandomUsername is for the server-side tick, which does not need
// cross-viewer agreement.
func RandomUsername(rnd *rand.Rand) string {
	return usernames[rnd.Intn(len(usernames))]
}
