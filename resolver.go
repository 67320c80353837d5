package hanconv

// Variant names one directional script conversion as understood by the
// Converter backend. The identifiers follow the OpenCC configuration
// naming ("t2s", "s2twp", ...).
type Variant string

const (
	// VariantNone means the run needs no character conversion at all
	// (quote and punctuation remapping may still apply).
	VariantNone Variant = "no_conversion"
	// VariantUnsupported is the terminal "cannot do that" outcome: the
	// caller must not start any document processing.
	VariantUnsupported Variant = "unsupported_conversion"

	VariantT2S   Variant = "t2s"   // traditional -> simplified (Mainland)
	VariantT2JP  Variant = "t2jp"  // traditional hanzi -> modern Japanese kanji
	VariantHK2S  Variant = "hk2s"  // Hong Kong traditional -> simplified
	VariantTW2S  Variant = "tw2s"  // Taiwan traditional -> simplified
	VariantTW2SP Variant = "tw2sp" // tw2s with Mainland phrasing
	VariantS2T   Variant = "s2t"   // simplified -> traditional (Mainland)
	VariantS2HK  Variant = "s2hk"  // simplified -> Hong Kong traditional
	VariantS2TW  Variant = "s2tw"  // simplified -> Taiwan traditional
	VariantS2TWP Variant = "s2twp" // s2tw with Taiwan phrasing
	VariantJP2T  Variant = "jp2t"  // modern Japanese kanji -> traditional hanzi
	VariantT2HK  Variant = "t2hk"  // Mainland traditional -> Hong Kong traditional
	VariantT2TW  Variant = "t2tw"  // Mainland traditional -> Taiwan traditional
	VariantHK2T  Variant = "hk2t"  // Hong Kong traditional -> Mainland traditional
	VariantTW2T  Variant = "tw2t"  // Taiwan traditional -> Mainland traditional
)

// Resolve maps a mode/locale selection onto a conversion variant.
//
// TradToSimp accepts Mainland, Hong Kong and Taiwan input; only Mainland
// output is supported, except Mainland input which may also target Japan.
// SimpToTrad accepts Mainland input (any traditional target) and Japan
// input (Mainland target only). TradToTrad converts between Mainland and
// Hong Kong or Taiwan in either direction; same-locale pairs are a no-op
// rather than an error. Everything else is VariantUnsupported.
func Resolve(mode Mode, input, output Locale, useTargetPhrasing bool) Variant {
	switch mode {
	case ModeNoChange:
		return VariantNone

	case ModeTradToSimp:
		switch input {
		case Mainland:
			switch output {
			case Mainland:
				return VariantT2S
			case Japan:
				return VariantT2JP
			}
		case HongKong:
			if output == Mainland {
				return VariantHK2S
			}
		case Taiwan:
			if output == Mainland {
				if useTargetPhrasing {
					return VariantTW2SP
				}
				return VariantTW2S
			}
		}
		// Japan input is simplified kanji only.
		return VariantUnsupported

	case ModeSimpToTrad:
		switch input {
		case Mainland:
			switch output {
			case Mainland:
				return VariantS2T
			case HongKong:
				return VariantS2HK
			case Taiwan:
				if useTargetPhrasing {
					return VariantS2TWP
				}
				return VariantS2TW
			}
		case Japan:
			if output == Mainland {
				return VariantJP2T
			}
		}
		// Hong Kong and Taiwan are traditional only.
		return VariantUnsupported

	case ModeTradToTrad:
		switch input {
		case Mainland:
			switch output {
			case Mainland:
				return VariantNone
			case HongKong:
				return VariantT2HK
			case Taiwan:
				return VariantT2TW
			}
		case HongKong:
			switch output {
			case Mainland:
				return VariantHK2T
			case HongKong:
				return VariantNone
			}
		case Taiwan:
			switch output {
			case Mainland:
				return VariantTW2T
			case Taiwan:
				return VariantNone
			}
		}
		// Hong Kong <-> Taiwan is not set up; Japan is invalid here.
		return VariantUnsupported
	}

	return VariantUnsupported
}

// LanguageTag returns the BCP 47 tag the converted book should carry
// ("zh-CN", "zh-HK", "zh-TW"), or "" when no language change applies.
// The table is deliberately distinct from Resolve: a TradToSimp run
// targeting Japan converts characters but leaves the language alone.
func LanguageTag(mode Mode, input, output Locale) string {
	switch mode {
	case ModeTradToSimp:
		if output == Mainland {
			return "zh-CN"
		}

	case ModeSimpToTrad:
		switch output {
		case Mainland:
			return "zh-CN"
		case HongKong:
			return "zh-HK"
		default:
			return "zh-TW"
		}

	case ModeTradToTrad:
		switch input {
		case Mainland:
			switch output {
			case HongKong:
				return "zh-HK"
			case Taiwan:
				return "zh-TW"
			}
		case HongKong:
			if output == Mainland {
				return "zh-CN"
			}
		case Taiwan:
			if output == Mainland {
				return "zh-CN"
			}
		}
	}
	return ""
}
