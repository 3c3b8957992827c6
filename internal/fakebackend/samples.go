package fakebackend

// pngStub is the 8-byte PNG signature, enough for clients that sniff file type.
var pngStub = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const sampleRiskReport = "```json\n" + `{
  "ozet": "Warm and mostly dry period with moderate winds.",
  "riskler": {
    "tarim": "Mild drought stress for rain-fed crops.",
    "saglik": "Afternoon heat may affect sensitive groups.",
    "ulasim": "No significant transport disruption expected."
  },
  "oneriler": [
    "Schedule irrigation for early morning.",
    "Limit strenuous outdoor activity after noon.",
    "Monitor local air quality alerts."
  ]
}` + "\n```"

const samplePrediction = `1. NUMERICAL FORECAST:
Average temperature 21.7 C, precipitation 1.4 mm/day, wind 3.8 m/s.

2. PERSONALIZED INSIGHTS:
Mornings are the most comfortable time for outdoor activities.

3. ACTIONABLE RECOMMENDATIONS:
- Plan runs before 9am.
- Carry water on longer outings.

4. WARNINGS & TIPS:
UV index peaks around midday; use sunscreen.`
