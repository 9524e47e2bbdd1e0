package svg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/kydy-backend/internal/types"
)

// GenerateFallback renders a parametric illustration for the requested kind.
// Output is deterministic: equal (kind, params) yield byte-identical SVG built
// from the allow-listed vocabulary only. Unknown kinds get a labeled
// placeholder so the pipeline never dead-ends, and absent or malformed
// parameters fall back to per-kind defaults.
func GenerateFallback(kind string, params map[string]any) string {
	switch kind {
	case types.PrimitiveResistor:
		return generateResistor(params)
	case types.PrimitiveBattery:
		return generateBattery(params)
	case types.PrimitiveStethoscope:
		return generateStethoscope(params)
	case types.PrimitiveGraph:
		return generateGraph(params)
	default:
		return generatePlaceholder(kind)
	}
}

func stringParam(params map[string]any, key, def string) string {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
	case float64:
		return formatNum(v)
	case int:
		return strconv.Itoa(v)
	}
	return def
}

func numberParam(params map[string]any, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func pointsParam(params map[string]any, key string, def []float64) []float64 {
	if params == nil {
		return def
	}
	raw, ok := params[key].([]any)
	if !ok || len(raw) == 0 {
		if typed, ok := params[key].([]float64); ok && len(typed) > 0 {
			return typed
		}
		return def
	}
	out := make([]float64, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case float64:
			out = append(out, v)
		case int:
			out = append(out, float64(v))
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func formatNum(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func resistorValue(params map[string]any) string {
	if v := stringParam(params, "value", ""); v != "" {
		return v
	}
	if ohms, ok := numberParam(params, "resistance_ohms"); ok {
		return formatNum(ohms) + "Ω"
	}
	return "10kΩ"
}

func generateResistor(params map[string]any) string {
	value := resistorValue(params)
	const width, height = 400, 200

	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="resistorGrad" x1="0%%" y1="0%%" x2="100%%" y2="0%%">
      <stop offset="0%%" style="stop-color:#8B4513;stop-opacity:1"/>
      <stop offset="50%%" style="stop-color:#A0522D;stop-opacity:1"/>
      <stop offset="100%%" style="stop-color:#8B4513;stop-opacity:1"/>
    </linearGradient>
    <filter id="shadow">
      <feDropShadow dx="2" dy="2" stdDeviation="3" flood-opacity="0.3"/>
    </filter>
  </defs>
  <rect width="%d" height="%d" fill="#f5f5f5" rx="8"/>
  <rect x="20" y="20" width="360" height="60" fill="#fff" stroke="#3b82f6" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="200" y="45" font-family="Arial, sans-serif" font-size="16" font-weight="bold" fill="#1e40af" text-anchor="middle" opacity="0">Resistor Component</text>
  <text x="200" y="65" font-family="Arial, sans-serif" font-size="14" fill="#4b5563" text-anchor="middle" opacity="0">Resistance: %s</text>
  <g transform="translate(50, 120)">
    <line x1="0" y1="0" x2="60" y2="0" stroke="#333" stroke-width="4" stroke-linecap="round"/>
    <rect x="60" y="-25" width="140" height="50" fill="url(#resistorGrad)" stroke="#654321" stroke-width="3" rx="6" opacity="0"/>
    <rect x="75" y="-25" width="10" height="50" fill="#000" opacity="0"/>
    <rect x="95" y="-25" width="10" height="50" fill="#8B0000" opacity="0"/>
    <rect x="115" y="-25" width="10" height="50" fill="#FFD700" opacity="0"/>
    <rect x="135" y="-25" width="10" height="50" fill="#C0C0C0" opacity="0"/>
    <line x1="200" y1="0" x2="260" y2="0" stroke="#333" stroke-width="4" stroke-linecap="round"/>
    <text x="130" y="40" font-family="Arial, sans-serif" font-size="14" font-weight="bold" fill="#1e40af" text-anchor="middle" opacity="0">%s</text>
  </g>
  <rect x="20" y="140" width="360" height="40" fill="#e0e7ff" stroke="#6366f1" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="200" y="165" font-family="Arial, sans-serif" font-size="14" fill="#4338ca" text-anchor="middle" opacity="0">R = Resistance (Ω)</text>
</svg>`, width, height, width, height, value, value)
}

func generateBattery(params map[string]any) string {
	voltage := stringParam(params, "voltage", "9V")
	const width, height = 400, 250

	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="batteryGrad" x1="0%%" y1="0%%" x2="0%%" y2="100%%">
      <stop offset="0%%" style="stop-color:#4CAF50;stop-opacity:1"/>
      <stop offset="50%%" style="stop-color:#2E7D32;stop-opacity:1"/>
      <stop offset="100%%" style="stop-color:#1B5E20;stop-opacity:1"/>
    </linearGradient>
    <filter id="shadow">
      <feDropShadow dx="2" dy="2" stdDeviation="3" flood-opacity="0.3"/>
    </filter>
  </defs>
  <rect width="%d" height="%d" fill="#f5f5f5" rx="8"/>
  <rect x="20" y="20" width="360" height="70" fill="#fff" stroke="#10b981" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="200" y="45" font-family="Arial, sans-serif" font-size="18" font-weight="bold" fill="#065f46" text-anchor="middle" opacity="0">Battery Component</text>
  <text x="200" y="70" font-family="Arial, sans-serif" font-size="14" fill="#4b5563" text-anchor="middle" opacity="0">Voltage: %s</text>
  <g transform="translate(140, 120)">
    <rect x="0" y="0" width="80" height="100" fill="url(#batteryGrad)" stroke="#1B5E20" stroke-width="3" rx="5" opacity="0"/>
    <rect x="25" y="-15" width="30" height="15" fill="#1B5E20" stroke="#0D4A0F" stroke-width="2" rx="3" opacity="0"/>
    <rect x="30" y="100" width="20" height="15" fill="#1B5E20" stroke="#0D4A0F" stroke-width="2" rx="3" opacity="0"/>
    <text x="40" y="130" font-family="Arial, sans-serif" font-size="16" font-weight="bold" fill="#065f46" text-anchor="middle" opacity="0">%s</text>
    <text x="40" y="10" font-family="Arial, sans-serif" font-size="20" font-weight="bold" fill="#fff" text-anchor="middle" opacity="0">+</text>
    <text x="40" y="110" font-family="Arial, sans-serif" font-size="20" font-weight="bold" fill="#fff" text-anchor="middle" opacity="0">-</text>
  </g>
  <rect x="20" y="200" width="360" height="35" fill="#d1fae5" stroke="#10b981" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="200" y="222" font-family="Arial, sans-serif" font-size="13" fill="#065f46" text-anchor="middle" opacity="0">Provides electrical energy to the circuit</text>
</svg>`, width, height, width, height, voltage, voltage)
}

func generateStethoscope(params map[string]any) string {
	const width, height = 450, 500

	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="tubeGrad" x1="0%%" y1="0%%" x2="100%%" y2="0%%">
      <stop offset="0%%" style="stop-color:#4169E1;stop-opacity:1"/>
      <stop offset="100%%" style="stop-color:#1E90FF;stop-opacity:1"/>
    </linearGradient>
    <filter id="shadow">
      <feDropShadow dx="2" dy="2" stdDeviation="3" flood-opacity="0.3"/>
    </filter>
  </defs>
  <rect width="%d" height="%d" fill="#f5f5f5" rx="8"/>
  <rect x="20" y="20" width="410" height="60" fill="#fff" stroke="#6366f1" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="225" y="45" font-family="Arial, sans-serif" font-size="18" font-weight="bold" fill="#4338ca" text-anchor="middle" opacity="0">Stethoscope</text>
  <text x="225" y="65" font-family="Arial, sans-serif" font-size="14" fill="#6b7280" text-anchor="middle" opacity="0">Medical diagnostic instrument</text>
  <g transform="translate(150, 100)">
    <circle cx="75" cy="0" r="35" fill="#C0C0C0" stroke="#808080" stroke-width="3" opacity="0"/>
    <circle cx="75" cy="0" r="25" fill="#E0E0E0" stroke="#A0A0A0" stroke-width="2" opacity="0"/>
    <path d="M 75 35 L 45 100 L 105 100 Z" fill="#4169E1" stroke="#1E3A8A" stroke-width="2" opacity="0"/>
    <path d="M 45 100 Q 15 170 -5 240" stroke="url(#tubeGrad)" stroke-width="8" fill="none" stroke-linecap="round" opacity="0"/>
    <path d="M 105 100 Q 135 170 155 240" stroke="url(#tubeGrad)" stroke-width="8" fill="none" stroke-linecap="round" opacity="0"/>
    <circle cx="-5" cy="240" r="15" fill="#4169E1" stroke="#1E3A8A" stroke-width="2" opacity="0"/>
    <circle cx="-5" cy="240" r="8" fill="#1E90FF" opacity="0"/>
    <circle cx="155" cy="240" r="15" fill="#4169E1" stroke="#1E3A8A" stroke-width="2" opacity="0"/>
    <circle cx="155" cy="240" r="8" fill="#1E90FF" opacity="0"/>
  </g>
  <rect x="20" y="360" width="200" height="60" fill="#e0e7ff" stroke="#6366f1" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="120" y="385" font-family="Arial, sans-serif" font-size="14" font-weight="bold" fill="#4338ca" text-anchor="middle" opacity="0">Chest Piece</text>
  <text x="120" y="405" font-family="Arial, sans-serif" font-size="12" fill="#4b5563" text-anchor="middle" opacity="0">Detects sounds</text>
  <rect x="230" y="360" width="200" height="60" fill="#e0e7ff" stroke="#6366f1" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="330" y="385" font-family="Arial, sans-serif" font-size="14" font-weight="bold" fill="#4338ca" text-anchor="middle" opacity="0">Earpieces</text>
  <text x="330" y="405" font-family="Arial, sans-serif" font-size="12" fill="#4b5563" text-anchor="middle" opacity="0">Amplify sounds</text>
  <rect x="20" y="430" width="410" height="55" fill="#dbeafe" stroke="#3b82f6" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="225" y="455" font-family="Arial, sans-serif" font-size="13" fill="#1e40af" text-anchor="middle" opacity="0">Used to listen to internal body sounds</text>
  <text x="225" y="475" font-family="Arial, sans-serif" font-size="12" fill="#4b5563" text-anchor="middle" opacity="0">Heart, lungs, and blood flow</text>
</svg>`, width, height, width, height)
}

func generateGraph(params map[string]any) string {
	const width, height = 500, 400
	points := pointsParam(params, "points", []float64{10, 30, 20, 40, 35, 50, 45})
	title := stringParam(params, "title", "Data Visualization")

	maxVal := points[0]
	minVal := points[0]
	sum := 0.0
	for _, p := range points {
		if p > maxVal {
			maxVal = p
		}
		if p < minVal {
			minVal = p
		}
		sum += p
	}
	if maxVal == 0 {
		maxVal = 50
	}

	normalized := make([]int, len(points))
	for i, p := range points {
		normalized[i] = int((p / maxVal) * 200)
	}

	var pathD strings.Builder
	fmt.Fprintf(&pathD, "M 80 %d", height-80-normalized[0])
	for i := 1; i < len(normalized); i++ {
		fmt.Fprintf(&pathD, " L %d %d", 80+i*60, height-80-normalized[i])
	}

	var dots strings.Builder
	for i, n := range normalized {
		fmt.Fprintf(&dots, `<circle cx="%d" cy="%d" r="6" fill="#3b82f6" opacity="0"/>`, 80+i*60, 250-n)
	}

	avg := int(sum / float64(len(points)))

	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <pattern id="grid" width="60" height="60" patternUnits="userSpaceOnUse">
      <path d="M 60 0 L 0 0 0 60" fill="none" stroke="#e0e0e0" stroke-width="1"/>
    </pattern>
    <filter id="shadow">
      <feDropShadow dx="2" dy="2" stdDeviation="3" flood-opacity="0.3"/>
    </filter>
  </defs>
  <rect width="%d" height="%d" fill="#f5f5f5" rx="8"/>
  <rect x="20" y="20" width="460" height="50" fill="#fff" stroke="#3b82f6" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="250" y="45" font-family="Arial, sans-serif" font-size="18" font-weight="bold" fill="#1e40af" text-anchor="middle" opacity="0">%s</text>
  <text x="250" y="65" font-family="Arial, sans-serif" font-size="12" fill="#6b7280" text-anchor="middle" opacity="0">Visual representation of data over time</text>
  <g transform="translate(0, 90)">
    <rect x="60" y="0" width="420" height="250" fill="url(#grid)" opacity="0"/>
    <line x1="80" y1="250" x2="460" y2="250" stroke="#333" stroke-width="3" opacity="0"/>
    <line x1="80" y1="20" x2="80" y2="250" stroke="#333" stroke-width="3" opacity="0"/>
    <path d="%s" fill="none" stroke="#3b82f6" stroke-width="4" stroke-linecap="round" stroke-linejoin="round" opacity="0"/>
    %s
    <text x="250" y="290" font-family="Arial, sans-serif" font-size="14" font-weight="bold" fill="#374151" text-anchor="middle" opacity="0">Time</text>
    <text x="30" y="145" font-family="Arial, sans-serif" font-size="14" font-weight="bold" fill="#374151" text-anchor="middle" transform="rotate(-90 30 145)" opacity="0">Value</text>
  </g>
  <rect x="20" y="340" width="460" height="45" fill="#dbeafe" stroke="#3b82f6" stroke-width="2" rx="6" filter="url(#shadow)" opacity="0"/>
  <text x="250" y="360" font-family="Arial, sans-serif" font-size="12" fill="#1e40af" text-anchor="middle" opacity="0">Max: %s | Min: %s | Avg: %d</text>
</svg>`, width, height, width, height, title, pathD.String(), dots.String(), formatNum(maxVal), formatNum(minVal), avg)
}

// generatePlaceholder labels an unrecognized kind rather than failing.
func generatePlaceholder(kind string) string {
	label := strings.TrimSpace(kind)
	if label == "" {
		label = "illustration"
	}
	// Labels flow into text content; keep the markup well formed.
	label = strings.NewReplacer("<", "", ">", "", "&", "and", `"`, "").Replace(label)

	return fmt.Sprintf(`<svg width="400" height="300" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="placeholderGrad" x1="0%%" y1="0%%" x2="100%%" y2="100%%">
      <stop offset="0%%" style="stop-color:#e0e7ff;stop-opacity:1"/>
      <stop offset="100%%" style="stop-color:#dbeafe;stop-opacity:1"/>
    </linearGradient>
  </defs>
  <rect width="400" height="300" fill="#f5f5f5" rx="8"/>
  <rect x="60" y="60" width="280" height="180" fill="url(#placeholderGrad)" stroke="#6366f1" stroke-width="2" rx="12"/>
  <circle cx="200" cy="130" r="36" fill="none" stroke="#6366f1" stroke-width="3"/>
  <line x1="176" y1="154" x2="224" y2="106" stroke="#6366f1" stroke-width="3" stroke-linecap="round"/>
  <text x="200" y="205" font-family="Arial, sans-serif" font-size="16" font-weight="bold" fill="#4338ca" text-anchor="middle">%s</text>
</svg>`, label)
}
