// internal/stages/localize/fallback.go
package localize

import (
	"fmt"

	"marketbrief/internal/models"
)

// Per-language static strings for the fallback document sent when the
// translation collaborator is unavailable. Recipients always get a readable
// message pointing back at the English rendering.

var fallbackHeaders = map[models.Language]string{
	models.LanguageArabic: "ملخص مالي يومي",
	models.LanguageHindi:  "दैनिक वित्तीय सारांश",
	models.LanguageHebrew: "סיכום פיננסי יומי",
}

var fallbackNotes = map[models.Language]string{
	models.LanguageArabic: "ملاحظة: الترجمة الآلية قد تحتوي على أخطاء. يرجى الرجوع إلى النسخة الإنجليزية للحصول على معلومات دقيقة.",
	models.LanguageHindi:  "नोट: मशीनी अनुवाद में त्रुटियां हो सकती हैं। सटीक जानकारी के लिए कृपया अंग्रेजी संस्करण देखें।",
	models.LanguageHebrew: "הערה: תרגום אוטומטי עלול להכיל שגיאות. אנא עיינו בגרסה האנגלית למידע מדויק.",
}

// fallbackDocument builds the static per-language apology document. It is
// deterministic and never empty, whatever the language.
func fallbackDocument(language models.Language) string {
	header, ok := fallbackHeaders[language]
	if !ok {
		header = fmt.Sprintf("%s Translation", language)
	}

	note, ok := fallbackNotes[language]
	if !ok {
		note = "Note: Automatic translation may contain errors. Please refer to the English version for accurate information."
	}

	return fmt.Sprintf(`<b>%s</b>

%s

<i>Original English content available in previous message</i>

---

<b>Key Market Data (English):</b>
• Market indices performance
• Top stock movers
• Economic news updates
• Tomorrow's market catalysts

<i>For detailed analysis, please refer to the English summary above.</i>`, header, note)
}
