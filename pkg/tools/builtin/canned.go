package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

type fact struct {
	key, text string
}

// knowledge is consulted in order; the first key contained in the query wins.
var knowledge = []fact{
	{"gpt-3 release", "GPT-3 was released by OpenAI in June 2020."},
	{"openai ceo", "Sam Altman is the CEO of OpenAI (as of 2020-2024)."},
	{"first iphone", "The first iPhone was released by Apple on June 29, 2007."},
	{"python release", "Python was first released in 1991 by Guido van Rossum."},
	{"popular language 2007", "According to the TIOBE index, Java was the most popular programming language in 2007."},
	{"eiffel tower height", "The Eiffel Tower is 330 meters (1,083 feet) tall including antennas."},
	{"paris population", "Paris has a population of approximately 2.2 million people in the city proper."},
	{"python", "Python is a high-level programming language created by Guido van Rossum in 1991."},
	{"agents", "AI agents are systems that can independently accomplish tasks using LLMs, tools, and reasoning."},
	{"openai", "OpenAI is an AI research company founded in 2015, known for GPT models and ChatGPT."},
	{"react", "ReAct (Reason + Act) is an agent pattern that combines reasoning traces with action execution."},
}

type cityInput struct {
	City string `tool:"city" desc:"Name of the city"`
}

type topicInput struct {
	Topic string `tool:"topic" desc:"News topic, e.g. tech or sports"`
}

type queryInput struct {
	Query string `tool:"query" desc:"What to look up"`
}

// Weather returns get_weather, which serves canned reports for a few cities.
func Weather() toolbox.Tool {
	return toolbox.MustFromFunc("get_weather", "Gets the current weather for a given city.",
		func(_ context.Context, in cityInput) (string, error) {
			return weatherFor(in.City), nil
		})
}

func weatherFor(city string) string {
	c := strings.ToLower(city)
	switch {
	case strings.Contains(c, "san francisco") || strings.Contains(c, "sf"):
		return "It's 65 degrees and sunny in San Francisco. Perfect weather!"
	case strings.Contains(c, "new york") || strings.Contains(c, "nyc"):
		return "It's 45 degrees and cloudy in New York. Bring a jacket!"
	case strings.Contains(c, "london"):
		return "It's 55 degrees and raining in London. Classic British weather."
	}
	return fmt.Sprintf("Sorry, I don't have weather data for %s. Try San Francisco, New York, or London.", city)
}

// News returns get_news, which serves canned headlines per topic.
func News() toolbox.Tool {
	return toolbox.MustFromFunc("get_news", "Gets the latest news headlines for a given topic.",
		func(_ context.Context, in topicInput) (string, error) {
			return newsFor(in.Topic), nil
		})
}

func newsFor(topic string) string {
	t := strings.ToLower(topic)
	switch {
	case strings.Contains(t, "tech"):
		return "Top tech news: 1) New AI model breaks records. 2) Major tech company announces layoffs. 3) Startup raises $100M in funding."
	case strings.Contains(t, "sports"):
		return "Top sports news: 1) Local team wins championship. 2) Star player announces retirement. 3) Olympics preparations underway."
	case strings.Contains(t, "politics"):
		return "Top political news: 1) New legislation passes. 2) Election results announced. 3) International summit concludes."
	}
	return fmt.Sprintf("Here are some general headlines about %s: 1) Breaking news story. 2) Important development. 3) Ongoing situation.", topic)
}

// Search returns search, backed by a small fixed knowledge base.
func Search() toolbox.Tool {
	return toolbox.MustFromFunc("search", "Searches the internet for information about a query.",
		func(_ context.Context, in queryInput) (string, error) {
			return lookup(in.Query), nil
		})
}

func lookup(query string) string {
	q := strings.ToLower(query)
	for _, f := range knowledge {
		if strings.Contains(q, f.key) {
			return f.text
		}
	}
	return fmt.Sprintf("No specific information found for '%s'. Try rephrasing your search.", query)
}
