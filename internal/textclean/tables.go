package textclean

var normalizeReplacer = []string{
	"ي", "ی",
	"ئ", "ی",
	"ك", "ک",
	"ۀ", "ه",
	"ة", "ه",
	"أ", "ا",
	"إ", "ا",
	"ؤ", "و",
	"ٱ", "ا",
	"\u0670", "",
	"\u200d", "",
	"\u0640", "",
}

// fillers are matched longest first so a phrase wins over its first word.
var fillers = [][]string{
	{"خب", "که"},
	{"مثلا"},
	{"خب"},
	{"یعنی"},
	{"دیگه"},
	{"اه"},
	{"اوه"},
	{"راستش"},
	{"آها"},
}

var cliticExceptions = map[string]struct{}{
	"پرتو":     {},
	"آذربایجان": {},
	"گفتوگو":   {},
}

// cliticSuffixes are tried in this order for each candidate stem length.
var cliticSuffixes = []string{"تو", "شو", "مو", "مون", "تون", "شون", "رو", "و"}

var confusions = map[string]string{
	"غشنگ":    "قشنگ",
	"غشنگه":   "قشنگه",
	"غشنگی":   "قشنگی",
	"میخوا":   "می‌خوام",
	"میخوام":  "می‌خوام",
	"نمیدونم": "نمی‌دونم",
	"نمیدون":  "نمی‌دونم",
	"نمیدنم":  "نمی‌دونم",
	"ایسر":    "عشق",
	"ایسرچه":  "عشقت",
	"ایسره":   "عشقه",
	"عشقر":    "عشق",
	"هرروز":   "هر روز",
}

var knownWords = []string{
	"عشق", "لبخند", "دل", "زندگی", "هر", "روز", "شب", "هرروز", "هرشب",
	"فاطمه", "قشنگ", "خونه", "نمی‌خوام", "می‌خندم", "نمی‌دونم", "می‌خوام",
	"دوستت", "دارم", "دوست", "احساس", "خیلی", "زیبا", "هستی", "می‌خندی", "آروم",
}

// phraseConfusions apply to adjacent token pairs.
var phraseConfusions = map[[2]string]string{
	{"می", "خوام"}: "می‌خوام",
}
