package ui

import (
	"fmt"
	"strings"

	"hostsgen/internal/util/format"
)

func (m Model) View() string {
	sections := []string{
		m.viewHeader(),
		m.viewSources(),
		m.viewExtensions(),
		m.viewFiles(),
	}
	if n := m.viewNotice(); n != "" {
		sections = append(sections, n)
	}
	sections = append(sections, m.styles.Faint.Render(m.t("help")))
	return strings.Join(sections, "\n") + "\n"
}

func (m Model) viewHeader() string {
	title := m.styles.Title.Render(m.t("app_title"))
	sub := m.styles.Subtitle.Render(m.t("app_subtitle"))
	return title + "\n" + sub
}

func (m Model) viewSources() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render(m.t("sources")))
	b.WriteString("\n")

	switch {
	case !m.loaded:
		b.WriteString(m.styles.Spinner.Render(m.spinner.View()))
	case m.sources.AllExist:
		b.WriteString(m.styles.Success.Render("✓ " + m.t("all_sources_available")))
	default:
		b.WriteString(m.styles.Warning.Render("! " + missingText(m.strings, len(m.sources.Missing))))
		b.WriteString(m.styles.Faint.Render(" (" + strings.Join(m.sources.Missing, ", ") + ")"))
	}
	b.WriteString("\n")

	if m.busy {
		fmt.Fprintf(&b, "%s %s %s\n",
			m.styles.Spinner.Render(m.spinner.View()),
			m.bar.ViewAs(float64(m.status.Clamp())/100.0),
			percentText(m.status.Clamp()))
		label := m.t(m.busyLabel)
		if m.status.CurrentSource != "" {
			label = m.status.CurrentSource
		}
		b.WriteString(m.styles.Info.Render(label))
		b.WriteString("\n")
	}

	b.WriteString(m.trigger("d", m.t("download_sources")))
	b.WriteString("  ")
	b.WriteString(m.trigger("u", m.t("update_sources")))
	return b.String()
}

// trigger renders a job key hint, struck through while a job runs.
func (m Model) trigger(key, label string) string {
	if m.busy {
		return m.styles.Disabled.Render("[" + key + "] " + label)
	}
	return m.styles.Item.Render("[" + key + "] " + label)
}

func (m Model) viewExtensions() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render(m.t("extensions")))
	for i, ext := range m.extensions {
		b.WriteString("\n")
		cursor := "  "
		if i == m.cursor {
			cursor = m.styles.Cursor.Render("> ")
		}
		box := "[ ]"
		if m.selected[ext.Name] {
			box = "[x]"
		}
		desc := m.t(ext.Name + "_desc")
		if ext.IsBase {
			desc = m.t("base_hosts_desc")
		}
		if desc == ext.Name+"_desc" {
			desc = ext.Description
		}

		line := fmt.Sprintf("%s %-10s %s", box, ext.Name, desc)
		var status string
		if ext.Available {
			status = m.styles.Success.Render(format.HumanizeBytes(ext.Size))
			line = m.styles.Item.Render(line)
		} else {
			status = m.styles.Error.Render(m.t("not_available"))
			line = m.styles.Faint.Render(line)
		}
		b.WriteString(cursor + line + " " + status)
		if ext.IsBase {
			b.WriteString(" " + m.styles.Badge.Render("BASE"))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Item.Render("[g] " + m.t("generate_button")))
	return b.String()
}

func (m Model) viewFiles() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render(m.t("output_files")))
	b.WriteString("\n")
	if len(m.files) == 0 {
		b.WriteString(m.styles.Faint.Render(m.t("no_files_generated") + " · " + m.t("generate_first_file")))
		return b.String()
	}
	for i, f := range m.files {
		if i == maxFiles {
			b.WriteString(m.styles.Faint.Render(fmt.Sprintf("  … %d more", len(m.files)-maxFiles)))
			break
		}
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			m.styles.Item.Render(f.Name),
			m.styles.Info.Render(format.HumanizeBytes(f.Size)),
			m.styles.Faint.Render(f.Modified))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewNotice() string {
	if m.notice == nil {
		return ""
	}
	style := m.styles.Success
	switch m.notice.kind {
	case noticeWarning:
		style = m.styles.Warning
	case noticeError:
		style = m.styles.Error
	}
	return m.styles.Notice.BorderForeground(style.GetForeground()).Render(style.Render(m.notice.text))
}
