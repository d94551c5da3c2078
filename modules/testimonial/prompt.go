package testimonial

// BubbleExtractionPrompt - 채팅 스크린샷에서 말풍선을 추출하는 고정 프롬프트.
// 응답은 반드시 JSON 배열이어야 하며 파서는 코드펜스/잡음을 허용한다.
const BubbleExtractionPrompt = `You are analyzing a screenshot of a chat conversation.

Identify EVERY distinct visible message bubble in the image and return a JSON array.
Each element must contain exactly these fields:

- "text": the message text VERBATIM, preserving emojis and line breaks
- "bodyBox": {"x": <int>, "y": <int>, "w": <int>, "h": <int>} - a tight rectangle
  around the bubble's text content, in pixels relative to the source image
- "side": "left" or "right" - which side of the conversation the bubble sits on
- "order": integer, top-to-bottom reading order starting at 1
- "authorName": (optional) the sender's name if visible near the bubble
- "authorRole": (optional) the sender's role/subtitle if visible

Rules:
- Include ONLY message bubbles, not timestamps, input fields, headers, or system notices.
- bodyBox must cover the bubble body, not the avatar next to it.
- Respond with ONLY the JSON array. No markdown, no explanation.

Example response:
[{"text":"Hi!","bodyBox":{"x":40,"y":120,"w":420,"h":110},"side":"left","order":1}]`
