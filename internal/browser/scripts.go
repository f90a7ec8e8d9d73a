package browser

// Element scripts run through ElementHandle.Evaluate with the element as the
// first argument.

const selectedOptionScript = `(el) => {
	if (!el.options) return null;
	const opt = el.options[el.selectedIndex];
	if (!opt) return null;
	return {text: opt.text, value: opt.value};
}`

const tagNameScript = `(el) => el.tagName.toLowerCase()`

// userScript wraps a function body so scripts written for WebDriver
// ("return document.title") run unchanged. Arguments are exposed as
// arguments[0..n].
func userScript(body string) string {
	return "(args) => (function() {\n" + body + "\n}).apply(null, args)"
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}
