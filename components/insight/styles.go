package insight

// StylesheetID marks the injected default stylesheet so repeated widget
// construction on the same document stays idempotent.
const StylesheetID = "epai-insight-sdk-styles"

const defaultStylesheet = `
.epai-insight-container {
  font-family: 'Inter', -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, 'Open Sans', 'Helvetica Neue', sans-serif;
}

.epai-insight-card {
  border-radius: 0.75rem;
  padding: 1.5rem;
  box-shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
  transition: all 0.3s ease;
  background-color: var(--epai-background);
  color: var(--epai-text);
  border: 1px solid var(--epai-border);
}

.epai-insight-card:hover {
  box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
}

.epai-insight-card.compact {
  display: flex;
  align-items: center;
  gap: 0.75rem;
  padding: 0.75rem;
  border-radius: 0.5rem;
  background-color: var(--epai-surface);
  white-space: nowrap;
}

.epai-insight-header {
  display: flex;
  justify-content: space-between;
  align-items: center;
  border-bottom: 1px solid var(--epai-border);
  padding-bottom: 1rem;
  margin-bottom: 1rem;
}

.epai-insight-title {
  font-weight: 600;
  font-size: 1.125rem;
}

.epai-insight-card.compact .epai-insight-title {
  font-size: 1rem;
}

.epai-insight-confidence {
  font-size: 0.75rem;
  font-weight: 500;
  border-radius: 9999px;
  padding: 0.25rem 0.625rem;
  background-color: var(--epai-surface);
  color: var(--epai-muted);
}

.epai-insight-body {
  text-align: center;
  padding: 1.25rem 0;
}

.epai-insight-value {
  font-size: 3rem;
  font-weight: 700;
  letter-spacing: -0.025em;
  color: var(--epai-accent);
}

.epai-insight-card.compact .epai-insight-value {
  font-size: 1rem;
  font-weight: 700;
}

.epai-insight-description {
  font-size: 1rem;
  margin-top: 0.625rem;
  color: var(--epai-muted);
}

.epai-insight-trend {
  margin-top: 0.75rem;
  overflow: hidden;
}

.epai-insight-footer {
  font-size: 0.75rem;
  text-align: center;
  color: var(--epai-muted);
  border-top: 1px solid var(--epai-border);
  padding-top: 1rem;
  margin-top: 1rem;
  opacity: 0.9;
}

.epai-insight-loading {
  padding: 1rem;
  text-align: center;
  color: #6b7280;
}

.epai-insight-error {
  padding: 1rem;
  text-align: center;
  color: #ef4444;
  border: 1px solid #ef4444;
  border-radius: 0.375rem;
}
`
