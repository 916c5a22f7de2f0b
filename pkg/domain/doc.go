/*
Package domain contains the core domain models of the ad-creative wizard.

It defines the entities shared by the matcher, the step-progression state machine and
the adapters. This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Option / Question: a selectable choice and the prompt currently awaiting an answer.
  - MatchResult: the outcome of mapping free text onto one option of a Question.
  - Template / InputDefinition: a named bundle of required and optional inputs.
  - Session: the wizard snapshot (selected template, collected inputs, canvas state).
  - Creative: one generated asset returned by the creative-generation service.
*/
package domain
