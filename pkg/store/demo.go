package store

import "context"

// Demo is the sample presentation offered on an empty store.
var Demo = Draft{
	Title:   "Sample Presentation",
	Company: "Demo Inc.",
	Creator: "System",
	Content: `# Sample Presentation
## Demo Inc.
## System

# The AI Business Revolution
- Rapid progress in artificial intelligence
- Automating and streamlining business processes
- Better decisions through data analysis
- Improved, personalized customer experience

# Key AI Technologies and Applications
- Machine learning and deep learning
- Natural language processing
- Computer vision
- Predictive analytics and decision support

# Our Initiatives
- Current AI adoption and results
- Next steps and strategy
- Training and skills development
- Partnerships and collaboration

# Challenges and Outlook
- Technical challenges and countermeasures
- Ethics and governance
- Market trends and competition
- Medium and long term vision`,
}

// SeedDemo saves Demo when the store is empty. It returns the new
// presentation, or nil when the store already had data.
func (s *Store) SeedDemo(ctx context.Context) (*Presentation, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}
	p, err := s.Create(ctx, Demo)
	if err != nil {
		return nil, err
	}
	s.log.Debug("demo presentation added")
	return p, nil
}
