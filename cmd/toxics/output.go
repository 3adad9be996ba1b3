package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Shopify/toxics/app"
	toxiproxy "github.com/Shopify/toxics/client"
	"github.com/Shopify/toxics/controller"
	"github.com/Shopify/toxics/scenario"
)

const (
	RED    = "\x1b[31m"
	GREEN  = "\x1b[32m"
	YELLOW = "\x1b[33m"
	BLUE   = "\x1b[34m"
	PURPLE = "\x1b[35m"
	NONE   = "\x1b[0m"
)

func color(color string) string {
	if isTTY {
		return color
	}
	return ""
}

func colorEnabled(enabled bool) string {
	if enabled {
		return color(GREEN)
	}

	return color(RED)
}

func enabledText(enabled bool) string {
	if enabled {
		return "enabled"
	}

	return "disabled"
}

func printProxies(w io.Writer, proxies map[string]*toxiproxy.Proxy) {
	var proxyNames []string
	for proxyName := range proxies {
		proxyNames = append(proxyNames, proxyName)
	}
	sort.Strings(proxyNames)

	if isTTY {
		fmt.Fprintf(
			w,
			"%sName\t\t\t%sListen\t\t%sUpstream\t\t%sEnabled\t\t%sToxics\n%s",
			color(GREEN),
			color(BLUE),
			color(YELLOW),
			color(PURPLE),
			color(RED),
			color(NONE),
		)
		fmt.Fprintf(
			w,
			"%s======================================================================================\n",
			color(NONE),
		)

		if len(proxyNames) == 0 {
			fmt.Fprintf(w, "%sno proxies\n%s", color(RED), color(NONE))
			return
		}
	}

	for _, proxyName := range proxyNames {
		proxy := proxies[proxyName]
		numToxics := strconv.Itoa(len(proxy.ActiveToxics))
		if numToxics == "0" && isTTY {
			numToxics = "None"
		}
		printWidth(w, colorEnabled(proxy.Enabled), proxy.Name, 3)
		printWidth(w, BLUE, proxy.Listen, 2)
		printWidth(w, YELLOW, proxy.Upstream, 3)
		printWidth(w, PURPLE, enabledText(proxy.Enabled), 2)
		fmt.Fprintf(w, "%s%s%s\n", color(RED), numToxics, color(NONE))
	}
	hint(w, "inspect toxics with `toxics list-toxics`")
}

func printToxics(w io.Writer, proxy string, toxics toxiproxy.Toxics) {
	if isTTY {
		fmt.Fprintf(w, "%s%s toxics:\n%s", color(GREEN), proxy, color(NONE))
		if len(toxics) == 0 {
			fmt.Fprintf(w, "%sProxy has no toxics enabled.\n%s", color(RED), color(NONE))
			hint(w, "add one with `toxics apply <scenario>`")
			return
		}
	}
	for _, t := range toxics {
		if isTTY {
			fmt.Fprintf(w, "%s%s:%s\t", color(BLUE), t.Name, color(NONE))
		} else {
			fmt.Fprintf(w, "%s\t", t.Name)
		}
		fmt.Fprintf(w, "type=%s\t", t.Type)
		fmt.Fprintf(w, "stream=%s\t", t.Stream)
		fmt.Fprintf(w, "toxicity=%.2f\t", t.Toxicity)
		fmt.Fprintf(w, "attributes=[")
		for _, a := range sortedAttributes(t.Attributes) {
			fmt.Fprintf(w, "\t%s=%v", a.key, a.value)
		}
		fmt.Fprintf(w, "\t]\n")
	}
}

func printScenarios(w io.Writer, scenarios []scenario.Scenario) {
	for _, s := range scenarios {
		printWidth(w, GREEN, s.ID, 2)
		if !s.Kind.IsToxic() {
			fmt.Fprintf(w, "%s\t%s\n", s.Kind, s.Description)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ToxicName, s.Stream, formatAttributes(s.Attributes), s.Description)
	}
}

func printStatus(w io.Writer, config app.Config, st *controller.Status) {
	printWidth(w, BLUE, "control plane", 2)
	fmt.Fprintf(w, "%s (version %s)\n", config.Endpoint, st.Version)

	printWidth(w, BLUE, "proxy", 2)
	if st.Proxy == nil {
		fmt.Fprintf(w, "%s%s not found%s\n", color(RED), config.Proxy, color(NONE))
		hint(w, "list proxies with `toxics list-proxies`")
		return
	}
	fmt.Fprintf(
		w,
		"%s %s%s%s, %d toxics\n",
		st.Proxy.Name,
		colorEnabled(st.Proxy.Enabled),
		enabledText(st.Proxy.Enabled),
		color(NONE),
		len(st.Proxy.ActiveToxics),
	)
}

func describeScenarios() string {
	var b strings.Builder
	for _, s := range scenario.All() {
		fmt.Fprintf(&b, "  %-11s %s\n", s.ID+":", s.Description)
	}
	return b.String()
}

func formatAttributes(attrs scenario.Attributes) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%d", k, attrs[k]))
	}
	return strings.Join(pairs, ",")
}

type attribute struct {
	key   string
	value interface{}
}

type attributeList []attribute

func (a attributeList) Len() int           { return len(a) }
func (a attributeList) Less(i, j int) bool { return a[i].key < a[j].key }
func (a attributeList) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }

func sortedAttributes(attrs toxiproxy.Attributes) attributeList {
	li := make(attributeList, 0, len(attrs))
	for k, v := range attrs {
		li = append(li, attribute{k, v})
	}
	sort.Sort(li)
	return li
}

func hint(w io.Writer, m string) {
	if isTTY {
		fmt.Fprintf(w, "\n%sHint: %s\n", color(NONE), m)
	}
}

func printWidth(w io.Writer, col string, m string, numTabs int) {
	if isTTY {
		numTabs -= len(m)/8 + 1
		if numTabs < 0 {
			numTabs = 0
		}
	} else {
		numTabs = 0
	}
	fmt.Fprintf(w, "%s%s%s\t%s", color(col), m, color(NONE), strings.Repeat("\t", numTabs))
}
