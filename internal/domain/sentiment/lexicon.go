package sentiment

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true, "nobody": true,
	"neither": true, "nor": true, "without": true, "hardly": true, "barely": true,
}

var intensifiers = map[string]bool{
	"very": true, "really": true, "extremely": true, "so": true, "super": true,
	"totally": true, "absolutely": true, "incredibly": true, "highly": true,
}

// baseLexicon holds polarities for words common in app reviews.
var baseLexicon = map[string]float64{
	// positive
	"good": 0.7, "great": 0.8, "excellent": 1.0, "amazing": 0.6, "awesome": 1.0,
	"love": 0.5, "loved": 0.7, "loving": 0.6, "like": 0.2, "nice": 0.6, "best": 1.0,
	"better": 0.5, "easy": 0.43, "fast": 0.2, "quick": 0.33, "smooth": 0.4,
	"helpful": 0.5, "useful": 0.3, "convenient": 0.5, "reliable": 0.5, "perfect": 1.0,
	"wonderful": 1.0, "fantastic": 0.4, "happy": 0.8, "satisfied": 0.5, "recommend": 0.4,
	"friendly": 0.375, "simple": 0.2, "clean": 0.37, "intuitive": 0.5, "stable": 0.4,
	"thanks": 0.2, "thank": 0.2, "superb": 1.0, "brilliant": 0.9, "seamless": 0.5,
	"fine": 0.42, "ok": 0.5, "okay": 0.5, "improved": 0.4, "works": 0.2, "working": 0.1,
	// negative
	"bad": -0.7, "terrible": -1.0, "horrible": -1.0, "awful": -1.0, "worst": -1.0,
	"worse": -0.4, "poor": -0.4, "hate": -0.8, "useless": -0.5, "slow": -0.3,
	"crash": -0.6, "crashes": -0.6, "crashing": -0.6, "crashed": -0.6, "bug": -0.4,
	"bugs": -0.4, "buggy": -0.5, "broken": -0.4, "error": -0.4, "errors": -0.4,
	"fail": -0.5, "fails": -0.5, "failed": -0.5, "failure": -0.5, "annoying": -0.8,
	"frustrating": -0.7, "disappointed": -0.75, "disappointing": -0.6, "difficult": -0.5,
	"confusing": -0.4, "lag": -0.3, "laggy": -0.4, "freeze": -0.4, "freezes": -0.4,
	"stuck": -0.3, "waste": -0.6, "rubbish": -0.8, "pathetic": -1.0, "unable": -0.5,
	"problem": -0.3, "problems": -0.3, "issue": -0.2, "issues": -0.2, "scam": -0.9,
	"expensive": -0.5, "unreliable": -0.5, "glitch": -0.4, "glitches": -0.4, "sucks": -0.7,
}
